// FILE: internal/dto/worker_dto.go
package dto

import "github.com/google/uuid"

// PublishEmbedCaseMessage is the bus payload asking the background worker
// to (re)build the embedding for one case.
type PublishEmbedCaseMessage struct {
	CaseId uuid.UUID `json:"case_id"`
}
