package service

import (
	"context"
	"errors"
	"testing"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

type fakeCaseRepo struct {
	cases map[uuid.UUID]*entity.Case
}

func (f *fakeCaseRepo) Create(ctx context.Context, c *entity.Case) error {
	f.cases[c.Id] = c
	return nil
}

func (f *fakeCaseRepo) Update(ctx context.Context, c *entity.Case) error {
	f.cases[c.Id] = c
	return nil
}

func (f *fakeCaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.cases, id)
	return nil
}

func (f *fakeCaseRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error) {
	var id uuid.UUID
	var owner *uuid.UUID
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id = s.ID
		case specification.OwnedBy:
			uid := s.UserID
			owner = &uid
		}
	}
	c, ok := f.cases[id]
	if !ok {
		return nil, nil
	}
	if owner != nil && c.UserId != *owner {
		return nil, nil
	}
	return c, nil
}

func (f *fakeCaseRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error) {
	return nil, nil
}

func (f *fakeCaseRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.cases)), nil
}

type fakeMessageRepo struct {
	messages []*entity.CaseMessage
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *entity.CaseMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseMessage, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) CountByCase(ctx context.Context, caseId uuid.UUID) (int64, error) {
	return int64(len(f.messages)), nil
}

type fakeSummaryRepo struct {
	summaries []*entity.CaseSummary
	createErr error
}

func (f *fakeSummaryRepo) Create(ctx context.Context, summary *entity.CaseSummary) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakeSummaryRepo) FindLatestByCase(ctx context.Context, caseId uuid.UUID) (*entity.CaseSummary, error) {
	for i := len(f.summaries) - 1; i >= 0; i-- {
		if f.summaries[i].CaseId == caseId {
			return f.summaries[i], nil
		}
	}
	return nil, nil
}

type summaryUnitOfWork struct {
	fakeUnitOfWork
	caseRepo    *fakeCaseRepo
	messageRepo *fakeMessageRepo
	summaryRepo *fakeSummaryRepo
}

func (u *summaryUnitOfWork) CaseRepository() contract.CaseRepository               { return u.caseRepo }
func (u *summaryUnitOfWork) CaseMessageRepository() contract.CaseMessageRepository { return u.messageRepo }
func (u *summaryUnitOfWork) CaseSummaryRepository() contract.CaseSummaryRepository { return u.summaryRepo }

type summaryFactory struct {
	uow *summaryUnitOfWork
}

func (f *summaryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

const validSummaryJSON = `{
	"caseDescription": "a tenancy deposit dispute",
	"timelineEvents": [
		{"date": "June 1st", "description": "Tenancy ended", "type": "legal"}
	],
	"keyPoints": ["Deposit not returned after 30 days"],
	"nextSteps": ["Send a letter before action"],
	"urgency": "medium"
}`

type summaryTestEnv struct {
	service ISummaryService
	llm     *fakeLLM
	uow     *summaryUnitOfWork
	userId  uuid.UUID
	caseId  uuid.UUID
}

func newSummaryEnv(withMessages bool) *summaryTestEnv {
	userId := uuid.New()
	caseId := uuid.New()

	caseRepo := &fakeCaseRepo{cases: map[uuid.UUID]*entity.Case{
		caseId: {Id: caseId, UserId: userId, CaseType: "tenancy", CountryCode: "GB"},
	}}
	messageRepo := &fakeMessageRepo{}
	if withMessages {
		messageRepo.messages = []*entity.CaseMessage{
			{Id: uuid.New(), CaseId: caseId, Role: entity.MessageRoleUser, Content: "My landlord kept my deposit"},
			{Id: uuid.New(), CaseId: caseId, Role: entity.MessageRoleAssistant, Content: "How long ago did the tenancy end?"},
		}
	}

	uow := &summaryUnitOfWork{
		caseRepo:    caseRepo,
		messageRepo: messageRepo,
		summaryRepo: &fakeSummaryRepo{},
	}
	llmFake := &fakeLLM{reply: validSummaryJSON}

	return &summaryTestEnv{
		service: NewSummaryService(&summaryFactory{uow: uow}, llmFake, nopLogger{}),
		llm:     llmFake,
		uow:     uow,
		userId:  userId,
		caseId:  caseId,
	}
}

func TestGenerateSummarySucceedsAndPersists(t *testing.T) {
	env := newSummaryEnv(true)

	res, err := env.service.Generate(context.Background(), env.userId, env.caseId)
	require.NoError(t, err)

	assert.Equal(t, "a tenancy deposit dispute", res.CaseDescription)
	assert.Equal(t, "medium", res.Urgency)
	assert.True(t, res.Persisted)
	assert.Len(t, res.TimelineEvents, 1)
	assert.Equal(t, 2, res.MessageCount)
	assert.Len(t, env.uow.summaryRepo.summaries, 1)
}

func TestGenerateSummarySurvivesStorageFailure(t *testing.T) {
	env := newSummaryEnv(true)
	env.uow.summaryRepo.createErr = errors.New("connection refused")

	res, err := env.service.Generate(context.Background(), env.userId, env.caseId)
	require.NoError(t, err, "a storage failure must not fail a successful generation")

	assert.False(t, res.Persisted)
	assert.Equal(t, "a tenancy deposit dispute", res.CaseDescription)
}

func TestGenerateSummaryUnwrapsCodeFence(t *testing.T) {
	env := newSummaryEnv(true)
	env.llm.reply = "```json\n" + validSummaryJSON + "\n```"

	res, err := env.service.Generate(context.Background(), env.userId, env.caseId)
	require.NoError(t, err)
	assert.Equal(t, "a tenancy deposit dispute", res.CaseDescription)
}

func TestGenerateSummaryRejectsInvalidModelOutput(t *testing.T) {
	env := newSummaryEnv(true)
	env.llm.reply = "Sorry, I cannot summarize this."

	_, err := env.service.Generate(context.Background(), env.userId, env.caseId)
	assert.Error(t, err)
	assert.Empty(t, env.uow.summaryRepo.summaries)
}

func TestGenerateSummaryRequiresConversation(t *testing.T) {
	env := newSummaryEnv(false)

	_, err := env.service.Generate(context.Background(), env.userId, env.caseId)
	assert.Error(t, err)
}

func TestGenerateSummaryEnforcesOwnership(t *testing.T) {
	env := newSummaryEnv(true)

	_, err := env.service.Generate(context.Background(), uuid.New(), env.caseId)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestGetLatestSummaryReturnsMostRecent(t *testing.T) {
	env := newSummaryEnv(true)

	_, err := env.service.Generate(context.Background(), env.userId, env.caseId)
	require.NoError(t, err)

	res, err := env.service.GetLatest(context.Background(), env.userId, env.caseId)
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, "a tenancy deposit dispute", res.CaseDescription)
}

func TestGetLatestSummaryWhenNoneExists(t *testing.T) {
	env := newSummaryEnv(true)

	_, err := env.service.GetLatest(context.Background(), env.userId, env.caseId)
	assert.Error(t, err)
}
