// FILE: internal/dto/file_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type CaseFileResponse struct {
	Id               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Filesize         int64     `json:"filesize"`
	Mimetype         string    `json:"mimetype"`
	DownloadURL      string    `json:"download_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type CaseFileListResponse struct {
	Files []CaseFileResponse `json:"files"`
}
