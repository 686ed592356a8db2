// FILE: internal/dto/summary_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type TimelineEventResponse struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type CaseSummaryResponse struct {
	Id              uuid.UUID               `json:"id"`
	CaseId          uuid.UUID               `json:"case_id"`
	CaseDescription string                  `json:"case_description"`
	TimelineEvents  []TimelineEventResponse `json:"timeline_events"`
	KeyPoints       []string                `json:"key_points"`
	NextSteps       []string                `json:"next_steps"`
	Urgency         string                  `json:"urgency"`
	MessageCount    int                     `json:"message_count"`
	CreatedAt       time.Time               `json:"created_at"`
	// Persisted is false when the summary was generated but could not be
	// saved; the caller still gets the content.
	Persisted bool `json:"persisted"`
}
