// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/llm"

	"github.com/google/uuid"
)

// chatHistoryWindow caps how much transcript is replayed to the model.
const chatHistoryWindow = 30

type IChatService interface {
	SendMessage(ctx context.Context, userId, caseId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, userId, caseId uuid.UUID) (*dto.ChatHistoryResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	llmProvider      llm.LLMProvider
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	publisherService IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		llmProvider:      llmProvider,
		publisherService: publisherService,
		logger:           log,
	}
}

func buildSystemPrompt(c *entity.Case) string {
	return fmt.Sprintf(`You are a helpful AI legal assistant. You are helping a user with their legal case in %s.

Case Details:
- Country/Jurisdiction: %s
- Case Type: %s
- Case Description: %s

Guidelines:
1. Provide legal guidance specific to the %s jurisdiction
2. Focus on %s matters
3. Give practical, actionable advice
4. Ask clarifying questions to understand their specific situation
5. Suggest next steps they can take
6. Be empathetic and supportive
7. Always remind users that you provide general guidance, not formal legal advice
8. If the case is complex, suggest they consult with a qualified lawyer
9. Format your responses using markdown for better readability
10. Keep responses helpful but concise`,
		c.CountryCode, c.CountryCode, c.CaseType, c.Description, c.CountryCode, c.CaseType)
}

func (s *chatService) SendMessage(ctx context.Context, userId, caseId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c, err := findOwnedCase(ctx, uow, userId, caseId)
	if err != nil {
		return nil, err
	}

	history, err := uow.CaseMessageRepository().FindAll(ctx,
		specification.Filter("case_id", caseId),
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: chatHistoryWindow, Offset: 0},
	)
	if err != nil {
		return nil, err
	}

	llmHistory := []llm.Message{{Role: "system", Content: buildSystemPrompt(c)}}
	for i := len(history) - 1; i >= 0; i-- {
		llmHistory = append(llmHistory, llm.Message{
			Role:    string(history[i].Role),
			Content: history[i].Content,
		})
	}
	llmHistory = append(llmHistory, llm.Message{Role: "user", Content: req.Message})

	reply, err := s.llmProvider.Chat(ctx, llmHistory, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("assistant is unavailable: %w", err)
	}

	userMsg := &entity.CaseMessage{
		Id:        uuid.New(),
		CaseId:    caseId,
		Role:      entity.MessageRoleUser,
		Content:   req.Message,
		CreatedAt: time.Now(),
	}
	assistantMsg := &entity.CaseMessage{
		Id:        uuid.New(),
		CaseId:    caseId,
		Role:      entity.MessageRoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CaseMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}
	if err := uow.CaseMessageRepository().Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Conversation content shifts what the case is about.
	s.requestEmbedding(ctx, caseId)

	return &dto.ChatResponse{
		Reply: dto.ChatMessageResponse{
			Id:        assistantMsg.Id,
			Role:      string(assistantMsg.Role),
			Content:   assistantMsg.Content,
			CreatedAt: assistantMsg.CreatedAt,
		},
	}, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId, caseId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedCase(ctx, uow, userId, caseId); err != nil {
		return nil, err
	}

	msgs, err := uow.CaseMessageRepository().FindAll(ctx,
		specification.Filter("case_id", caseId),
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.ChatHistoryResponse{Messages: []dto.ChatMessageResponse{}}
	for _, m := range msgs {
		res.Messages = append(res.Messages, dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

func (s *chatService) requestEmbedding(ctx context.Context, caseId uuid.UUID) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedCaseMessage{CaseId: caseId})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("ChatService", "Failed to queue embedding rebuild", map[string]interface{}{
			"case_id": caseId,
			"error":   err.Error(),
		})
	}
}
