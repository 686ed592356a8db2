// FILE: internal/entity/case_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	CaseStatusActive   CaseStatus = "active"
	CaseStatusResolved CaseStatus = "resolved"
	CaseStatusArchived CaseStatus = "archived"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

type TimelineEventType string

const (
	TimelineEventPayment       TimelineEventType = "payment"
	TimelineEventCommunication TimelineEventType = "communication"
	TimelineEventLegal         TimelineEventType = "legal"
	TimelineEventDeadline      TimelineEventType = "deadline"
	TimelineEventOther         TimelineEventType = "other"
)

// Case is one legal matter: a jurisdiction, a case type, and the chat
// transcript the assistant reasons over.
type Case struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	Description string
	CountryCode string
	CaseType    string
	Status      CaseStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CaseMessage struct {
	Id        uuid.UUID
	CaseId    uuid.UUID
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}

// TimelineEvent is one dated fact extracted from the conversation. Dates are
// kept as free text because the model reports them the way the user said
// them ("last month", "June 1st").
type TimelineEvent struct {
	Date        string            `json:"date"`
	Description string            `json:"description"`
	Type        TimelineEventType `json:"type"`
}

// CaseSummary is an AI-generated structured snapshot of a case at a point in
// the conversation. Summaries are append-only; the newest one wins.
type CaseSummary struct {
	Id              uuid.UUID
	CaseId          uuid.UUID
	CaseDescription string
	TimelineEvents  []TimelineEvent
	KeyPoints       []string
	NextSteps       []string
	Urgency         UrgencyLevel
	MessageCount    int
	CreatedAt       time.Time
}

type CaseFile struct {
	Id               uuid.UUID
	CaseId           uuid.UUID
	Filename         string
	OriginalFilename string
	StoragePath      string
	Filesize         int64
	Mimetype         string
	UploadedBy       uuid.UUID
	CreatedAt        time.Time
}
