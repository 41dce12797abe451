package types

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the long-lived record the suggestion pipeline reads. The three
// content columns are free-text buckets the client fills in; Goal is the
// user's stated professional objective.
type Profile struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"uniqueIndex;not null" json:"user_id"`
	User            *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Name            string    `gorm:"not null;column:name" json:"name"`
	Goal            string    `gorm:"column:goal" json:"goal"`
	PlannedContent  string    `gorm:"column:planned_content" json:"plannedContent"`
	ReactiveContent string    `gorm:"column:reactive_content" json:"reactiveContent"`
	CompanyContent  string    `gorm:"column:company_content" json:"companyContent"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profile"
}

// CategoryContent returns the bucket for a category name, empty string for
// unknown categories.
func (p *Profile) CategoryContent(category string) string {
	switch category {
	case "plannedContent":
		return p.PlannedContent
	case "reactiveContent":
		return p.ReactiveContent
	case "companyContent":
		return p.CompanyContent
	}
	return ""
}
