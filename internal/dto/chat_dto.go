// FILE: internal/dto/chat_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatResponse struct {
	Reply ChatMessageResponse `json:"reply"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
}
