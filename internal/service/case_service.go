// FILE: internal/service/case_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

var ErrCaseNotFound = errors.New("case not found")

type ICaseService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateCaseRequest) (*dto.CaseResponse, error)
	Show(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseResponse, error)
	List(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.CaseListResponse, error)
	Update(ctx context.Context, userId, caseId uuid.UUID, req *dto.UpdateCaseRequest) (*dto.CaseResponse, error)
	Delete(ctx context.Context, userId, caseId uuid.UUID) error
	FindRelated(ctx context.Context, userId, caseId uuid.UUID, limit int) ([]*dto.RelatedCaseResponse, error)
}

type caseService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewCaseService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) ICaseService {
	return &caseService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func toCaseResponse(c *entity.Case) *dto.CaseResponse {
	return &dto.CaseResponse{
		Id:          c.Id,
		Title:       c.Title,
		Description: c.Description,
		CountryCode: c.CountryCode,
		CaseType:    c.CaseType,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// findOwnedCase fetches a case and enforces ownership in one query.
func findOwnedCase(ctx context.Context, uow unitofwork.UnitOfWork, userId, caseId uuid.UUID) (*entity.Case, error) {
	c, err := uow.CaseRepository().FindOne(ctx,
		specification.ByID{ID: caseId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

func (s *caseService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateCaseRequest) (*dto.CaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c := &entity.Case{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       req.Title,
		Description: req.Description,
		CountryCode: req.CountryCode,
		CaseType:    req.CaseType,
		Status:      entity.CaseStatusActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := uow.CaseRepository().Create(ctx, c); err != nil {
		return nil, err
	}

	s.requestEmbedding(ctx, c.Id)
	return toCaseResponse(c), nil
}

func (s *caseService) Show(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c, err := findOwnedCase(ctx, uow, userId, caseId)
	if err != nil {
		return nil, err
	}
	return toCaseResponse(c), nil
}

func (s *caseService) List(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.CaseListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cases, err := uow.CaseRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	total, err := uow.CaseRepository().Count(ctx, specification.OwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	res := &dto.CaseListResponse{Total: total, Cases: []dto.CaseResponse{}}
	for _, c := range cases {
		res.Cases = append(res.Cases, *toCaseResponse(c))
	}
	return res, nil
}

func (s *caseService) Update(ctx context.Context, userId, caseId uuid.UUID, req *dto.UpdateCaseRequest) (*dto.CaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c, err := findOwnedCase(ctx, uow, userId, caseId)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Status != nil {
		c.Status = entity.CaseStatus(*req.Status)
	}
	c.UpdatedAt = time.Now()

	if err := uow.CaseRepository().Update(ctx, c); err != nil {
		return nil, err
	}

	s.requestEmbedding(ctx, c.Id)
	return toCaseResponse(c), nil
}

func (s *caseService) Delete(ctx context.Context, userId, caseId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c, err := findOwnedCase(ctx, uow, userId, caseId)
	if err != nil {
		return err
	}

	return uow.CaseRepository().Delete(ctx, c.Id)
}

func (s *caseService) FindRelated(ctx context.Context, userId, caseId uuid.UUID, limit int) ([]*dto.RelatedCaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c, err := findOwnedCase(ctx, uow, userId, caseId)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 20 {
		limit = 5
	}

	query := c.Title + "\n" + c.Description
	res, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	ids, err := uow.CaseEmbeddingRepository().FindNearest(ctx, userId, c.Id,
		pgvector.NewVector(res.Embedding.Values), limit)
	if err != nil {
		return nil, err
	}

	var related []*dto.RelatedCaseResponse
	for _, id := range ids {
		match, err := uow.CaseRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil || match == nil {
			continue
		}
		related = append(related, &dto.RelatedCaseResponse{
			Id:       match.Id,
			Title:    match.Title,
			CaseType: match.CaseType,
			Status:   string(match.Status),
		})
	}
	return related, nil
}

// requestEmbedding queues a background embedding rebuild; failures only log.
func (s *caseService) requestEmbedding(ctx context.Context, caseId uuid.UUID) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedCaseMessage{CaseId: caseId})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("CaseService", "Failed to queue embedding rebuild", map[string]interface{}{
			"case_id": caseId,
			"error":   err.Error(),
		})
	}
}
