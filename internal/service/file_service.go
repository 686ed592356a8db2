// FILE: internal/service/file_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/storage"

	"github.com/google/uuid"
)

const (
	maxFileSize        = 10 << 20 // 10 MiB
	presignedURLExpiry = 15 * time.Minute
)

var allowedMimetypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"text/plain":      true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var ErrFileNotFound = errors.New("file not found")

type IFileService interface {
	Upload(ctx context.Context, userId, caseId uuid.UUID, filename, mimetype string, size int64, content io.Reader) (*dto.CaseFileResponse, error)
	List(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseFileListResponse, error)
	Delete(ctx context.Context, userId, caseId, fileId uuid.UUID) error
}

type fileService struct {
	uowFactory unitofwork.RepositoryFactory
	storage    storage.ObjectStorage
	logger     logger.ILogger
}

func NewFileService(
	uowFactory unitofwork.RepositoryFactory,
	objectStorage storage.ObjectStorage,
	log logger.ILogger,
) IFileService {
	return &fileService{
		uowFactory: uowFactory,
		storage:    objectStorage,
		logger:     log,
	}
}

func (s *fileService) Upload(ctx context.Context, userId, caseId uuid.UUID, filename, mimetype string, size int64, content io.Reader) (*dto.CaseFileResponse, error) {
	if size <= 0 || size > maxFileSize {
		return nil, fmt.Errorf("file size must be between 1 byte and %d bytes", maxFileSize)
	}
	if !allowedMimetypes[strings.ToLower(mimetype)] {
		return nil, fmt.Errorf("unsupported file type: %s", mimetype)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedCase(ctx, uow, userId, caseId); err != nil {
		return nil, err
	}

	fileId := uuid.New()
	storedName := fileId.String() + strings.ToLower(filepath.Ext(filename))
	storagePath := fmt.Sprintf("cases/%s/%s", caseId, storedName)

	if err := s.storage.Put(ctx, storagePath, content, mimetype, size); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	record := &entity.CaseFile{
		Id:               fileId,
		CaseId:           caseId,
		Filename:         storedName,
		OriginalFilename: filename,
		StoragePath:      storagePath,
		Filesize:         size,
		Mimetype:         mimetype,
		UploadedBy:       userId,
		CreatedAt:        time.Now(),
	}

	if err := uow.CaseFileRepository().Create(ctx, record); err != nil {
		// DB failed after the object was stored: clean up so the bucket does
		// not accumulate orphans.
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Error("FileService", "Failed to delete orphaned object", map[string]interface{}{
				"path":  storagePath,
				"error": delErr.Error(),
			})
		}
		return nil, err
	}

	return s.toFileResponse(ctx, record), nil
}

func (s *fileService) List(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseFileListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedCase(ctx, uow, userId, caseId); err != nil {
		return nil, err
	}

	files, err := uow.CaseFileRepository().FindAll(ctx,
		specification.Filter("case_id", caseId),
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.CaseFileListResponse{Files: []dto.CaseFileResponse{}}
	for _, f := range files {
		res.Files = append(res.Files, *s.toFileResponse(ctx, f))
	}
	return res, nil
}

func (s *fileService) Delete(ctx context.Context, userId, caseId, fileId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedCase(ctx, uow, userId, caseId); err != nil {
		return err
	}

	file, err := uow.CaseFileRepository().FindOne(ctx,
		specification.ByID{ID: fileId},
		specification.Filter("case_id", caseId),
	)
	if err != nil {
		return err
	}
	if file == nil {
		return ErrFileNotFound
	}

	if err := uow.CaseFileRepository().Delete(ctx, file.Id); err != nil {
		return err
	}

	// Object removal is best-effort once the row is gone.
	if err := s.storage.Delete(ctx, file.StoragePath); err != nil {
		s.logger.Warn("FileService", "Failed to delete stored object", map[string]interface{}{
			"path":  file.StoragePath,
			"error": err.Error(),
		})
	}
	return nil
}

func (s *fileService) toFileResponse(ctx context.Context, f *entity.CaseFile) *dto.CaseFileResponse {
	res := &dto.CaseFileResponse{
		Id:               f.Id,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		Filesize:         f.Filesize,
		Mimetype:         f.Mimetype,
		CreatedAt:        f.CreatedAt,
	}

	url, err := s.storage.PresignGet(ctx, f.StoragePath, presignedURLExpiry)
	if err != nil {
		s.logger.Warn("FileService", "Failed to presign download URL", map[string]interface{}{
			"path":  f.StoragePath,
			"error": err.Error(),
		})
	} else {
		res.DownloadURL = url
	}
	return res
}
