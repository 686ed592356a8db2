package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Case struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:varchar(200);not null"`
	Description string         `gorm:"type:text"`
	CountryCode string         `gorm:"type:varchar(2);not null"`
	CaseType    string         `gorm:"type:varchar(50);not null"`
	Status      string         `gorm:"type:varchar(50);not null;default:'active'"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Case) TableName() string {
	return "cases"
}

type CaseMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (CaseMessage) TableName() string {
	return "case_messages"
}

type CaseSummary struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	CaseDescription string         `gorm:"type:text;not null"`
	TimelineEvents  datatypes.JSON `gorm:"type:jsonb"`
	KeyPoints       datatypes.JSON `gorm:"type:jsonb"`
	NextSteps       datatypes.JSON `gorm:"type:jsonb"`
	Urgency         string         `gorm:"type:varchar(10);not null"`
	MessageCount    int            `gorm:"default:0"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (CaseSummary) TableName() string {
	return "case_summaries"
}

type CaseFile struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId           uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename         string    `gorm:"type:varchar(255);not null"`
	OriginalFilename string    `gorm:"type:varchar(255);not null"`
	StoragePath      string    `gorm:"type:text;not null"`
	Filesize         int64     `gorm:"not null"`
	Mimetype         string    `gorm:"type:varchar(100);not null"`
	UploadedBy       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (CaseFile) TableName() string {
	return "case_files"
}

// CaseEmbedding stores one vector per case over its description, used for
// the "similar cases" lookup.
type CaseEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1536)"` // text-embedding-3-small uses 1536 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (CaseEmbedding) TableName() string {
	return "case_embeddings"
}
