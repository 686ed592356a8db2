package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStorage struct {
	objects map[string]int64
	putErr  error
}

func (f *fakeObjectStorage) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = size
	return nil
}

func (f *fakeObjectStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

type fakeCaseFileRepo struct {
	files     []*entity.CaseFile
	createErr error
}

func (f *fakeCaseFileRepo) Create(ctx context.Context, file *entity.CaseFile) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.files = append(f.files, file)
	return nil
}

func (f *fakeCaseFileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := f.files[:0]
	for _, file := range f.files {
		if file.Id != id {
			kept = append(kept, file)
		}
	}
	f.files = kept
	return nil
}

func (f *fakeCaseFileRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CaseFile, error) {
	for _, spec := range specs {
		if s, ok := spec.(specification.ByID); ok {
			for _, file := range f.files {
				if file.Id == s.ID {
					return file, nil
				}
			}
		}
	}
	return nil, nil
}

func (f *fakeCaseFileRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseFile, error) {
	return f.files, nil
}

type fileUnitOfWork struct {
	fakeUnitOfWork
	caseRepo *fakeCaseRepo
	fileRepo *fakeCaseFileRepo
}

func (u *fileUnitOfWork) CaseRepository() contract.CaseRepository         { return u.caseRepo }
func (u *fileUnitOfWork) CaseFileRepository() contract.CaseFileRepository { return u.fileRepo }

type fileFactory struct {
	uow *fileUnitOfWork
}

func (f *fileFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fileEnv struct {
	service IFileService
	storage *fakeObjectStorage
	files   *fakeCaseFileRepo
	userId  uuid.UUID
	caseId  uuid.UUID
}

func newFileEnv() *fileEnv {
	userId := uuid.New()
	caseId := uuid.New()
	uow := &fileUnitOfWork{
		caseRepo: &fakeCaseRepo{cases: map[uuid.UUID]*entity.Case{
			caseId: {Id: caseId, UserId: userId, Title: "Deposit dispute"},
		}},
		fileRepo: &fakeCaseFileRepo{},
	}
	storage := &fakeObjectStorage{objects: map[string]int64{}}
	return &fileEnv{
		service: NewFileService(&fileFactory{uow: uow}, storage, nopLogger{}),
		storage: storage,
		files:   uow.fileRepo,
		userId:  userId,
		caseId:  caseId,
	}
}

func (e *fileEnv) upload(mimetype string) error {
	_, err := e.service.Upload(context.Background(), e.userId, e.caseId,
		"evidence.bin", mimetype, 128, strings.NewReader("content"))
	return err
}

func TestUploadStoresObjectAndRecord(t *testing.T) {
	env := newFileEnv()

	res, err := env.service.Upload(context.Background(), env.userId, env.caseId,
		"lease agreement.pdf", "application/pdf", 2048, strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)

	require.Len(t, env.files.files, 1)
	assert.Equal(t, "lease agreement.pdf", env.files.files[0].OriginalFilename)
	assert.Len(t, env.storage.objects, 1)
	assert.Contains(t, res.DownloadURL, "https://files.example.com/")
}

func TestUploadAcceptsEachAllowedType(t *testing.T) {
	allowed := []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
		"image/jpeg",
		"image/png",
		"image/gif",
	}
	for _, mimetype := range allowed {
		t.Run(mimetype, func(t *testing.T) {
			env := newFileEnv()
			assert.NoError(t, env.upload(mimetype))
		})
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := newFileEnv()

	for _, mimetype := range []string{"image/webp", "application/zip", "video/mp4"} {
		err := env.upload(mimetype)
		require.Error(t, err, mimetype)
		assert.Contains(t, err.Error(), "unsupported file type")
	}
	assert.Empty(t, env.storage.objects)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	env := newFileEnv()

	_, err := env.service.Upload(context.Background(), env.userId, env.caseId,
		"scan.pdf", "application/pdf", maxFileSize+1, strings.NewReader(""))
	assert.Error(t, err)
}

func TestUploadEnforcesCaseOwnership(t *testing.T) {
	env := newFileEnv()

	_, err := env.service.Upload(context.Background(), uuid.New(), env.caseId,
		"scan.pdf", "application/pdf", 128, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestUploadCleansUpObjectWhenRecordFails(t *testing.T) {
	env := newFileEnv()
	env.files.createErr = assert.AnError

	_, err := env.service.Upload(context.Background(), env.userId, env.caseId,
		"scan.pdf", "application/pdf", 128, strings.NewReader("x"))
	require.Error(t, err)
	assert.Empty(t, env.storage.objects, "stored object is removed when the record cannot be written")
}
