package model

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	AmountCents int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null;default:'usd'"`
	Interval    string    `gorm:"type:varchar(20);not null"`
	CaseLimit   int       `gorm:"default:-1"`
	IsActive    bool      `gorm:"default:true"`
	SortOrder   int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Plan) TableName() string {
	return "plans"
}

type Subscription struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	PlanId               string    `gorm:"type:varchar(100)"`
	Status               string    `gorm:"type:varchar(50);not null"`
	StripeCustomerId     string    `gorm:"type:varchar(255);index"`
	StripeSubscriptionId *string   `gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
