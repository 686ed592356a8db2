// FILE: internal/dto/case_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCaseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
	CaseType    string `json:"case_type" validate:"required"`
}

type UpdateCaseRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=10"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active resolved archived"`
}

type CaseResponse struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CountryCode string    `json:"country_code"`
	CaseType    string    `json:"case_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CaseListResponse struct {
	Cases []CaseResponse `json:"cases"`
	Total int64          `json:"total"`
}

// RelatedCaseResponse is one semantically similar case of the same user.
type RelatedCaseResponse struct {
	Id       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	CaseType string    `json:"case_type"`
	Status   string    `json:"status"`
}
