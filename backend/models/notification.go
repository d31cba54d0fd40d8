package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification expires passively: rows past ExpirationDate are filtered
// out of listings rather than deleted by a background job.
type Notification struct {
	gorm.Model
	UserID         uint   `gorm:"index;not null"`
	Title          string `gorm:"not null"`
	Message        string `gorm:"not null"`
	Type           string `gorm:"not null"` // academic, behavior, attendance, system, achievement, reminder
	Priority       string `gorm:"default:medium"`
	RelatedType    string
	RelatedID      *uint
	IsRead         bool `gorm:"default:false"`
	ReadAt         *time.Time
	ActionURL      string
	Metadata       datatypes.JSON
	ExpirationDate *time.Time
}
