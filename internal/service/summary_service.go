// FILE: internal/service/summary_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/llm"

	"github.com/google/uuid"
)

type ISummaryService interface {
	// Generate builds a structured summary from the case transcript. The
	// returned response reports whether persistence succeeded; a storage
	// failure never fails a successful generation.
	Generate(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseSummaryResponse, error)
	GetLatest(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseSummaryResponse, error)
}

type summaryService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewSummaryService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
) ISummaryService {
	return &summaryService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		logger:      log,
	}
}

// generatedSummary is the JSON shape the model is asked to return.
type generatedSummary struct {
	CaseDescription string                 `json:"caseDescription"`
	TimelineEvents  []entity.TimelineEvent `json:"timelineEvents"`
	KeyPoints       []string               `json:"keyPoints"`
	NextSteps       []string               `json:"nextSteps"`
	Urgency         string                 `json:"urgency"`
}

func buildSummaryPrompt(c *entity.Case) string {
	return fmt.Sprintf(`You are an AI assistant that analyzes legal conversations and creates structured summaries.

Based on the conversation about a %s case in %s, create a JSON summary with this exact structure:

{
  "caseDescription": "Brief description of the legal issue (e.g., 'a payment dispute', 'an employment termination', 'a tenancy issue')",
  "timelineEvents": [
    {
      "date": "Date mentioned (e.g., 'June 1st', 'Last month', '3 weeks ago')",
      "description": "What happened",
      "type": "payment|communication|legal|deadline|other"
    }
  ],
  "keyPoints": [
    "Important facts or issues mentioned"
  ],
  "nextSteps": [
    "Recommended actions based on the conversation"
  ],
  "urgency": "low|medium|high"
}

Guidelines:
- Extract actual dates/timeframes mentioned in the conversation
- Focus on concrete facts and events
- Determine urgency based on deadlines, threats, or time-sensitive issues
- Keep descriptions concise and clear
- Only include information that was actually discussed

Return ONLY the JSON object, no additional text.`, c.CaseType, c.CountryCode)
}

// stripCodeFence removes a markdown fence if the model wrapped its JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func (s *summaryService) Generate(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	c, err := findOwnedCase(ctx, uow, userId, caseId)
	if err != nil {
		return nil, err
	}

	msgs, err := uow.CaseMessageRepository().FindAll(ctx,
		specification.Filter("case_id", caseId),
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("case has no conversation to summarize")
	}

	history := []llm.Message{{Role: "system", Content: buildSummaryPrompt(c)}}
	for _, m := range msgs {
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	raw, err := s.llmProvider.Chat(ctx, history,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(1500),
	)
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}

	var generated generatedSummary
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &generated); err != nil {
		return nil, fmt.Errorf("summary has invalid structure: %w", err)
	}
	if generated.CaseDescription == "" || generated.Urgency == "" {
		return nil, fmt.Errorf("summary has invalid structure")
	}

	summary := &entity.CaseSummary{
		Id:              uuid.New(),
		CaseId:          caseId,
		CaseDescription: generated.CaseDescription,
		TimelineEvents:  generated.TimelineEvents,
		KeyPoints:       generated.KeyPoints,
		NextSteps:       generated.NextSteps,
		Urgency:         entity.UrgencyLevel(generated.Urgency),
		MessageCount:    len(msgs),
		CreatedAt:       time.Now(),
	}

	// Persistence is a secondary side-effect: a failed save is logged and
	// reported on the response, never propagated.
	persisted := true
	if err := uow.CaseSummaryRepository().Create(ctx, summary); err != nil {
		persisted = false
		s.logger.Error("SummaryService", "Failed to persist summary", map[string]interface{}{
			"case_id": caseId,
			"error":   err.Error(),
		})
	}

	return toSummaryResponse(summary, persisted), nil
}

func (s *summaryService) GetLatest(ctx context.Context, userId, caseId uuid.UUID) (*dto.CaseSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedCase(ctx, uow, userId, caseId); err != nil {
		return nil, err
	}

	summary, err := uow.CaseSummaryRepository().FindLatestByCase(ctx, caseId)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("no summary for this case yet")
	}

	return toSummaryResponse(summary, true), nil
}

func toSummaryResponse(summary *entity.CaseSummary, persisted bool) *dto.CaseSummaryResponse {
	res := &dto.CaseSummaryResponse{
		Id:              summary.Id,
		CaseId:          summary.CaseId,
		CaseDescription: summary.CaseDescription,
		TimelineEvents:  []dto.TimelineEventResponse{},
		KeyPoints:       summary.KeyPoints,
		NextSteps:       summary.NextSteps,
		Urgency:         string(summary.Urgency),
		MessageCount:    summary.MessageCount,
		CreatedAt:       summary.CreatedAt,
		Persisted:       persisted,
	}
	for _, e := range summary.TimelineEvents {
		res.TimelineEvents = append(res.TimelineEvents, dto.TimelineEventResponse{
			Date:        e.Date,
			Description: e.Description,
			Type:        string(e.Type),
		})
	}
	return res
}
