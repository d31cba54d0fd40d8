package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProgressNotStarted = "not-started"
	ProgressInProgress = "in-progress"
	ProgressCompleted  = "completed"
)

// Progress is a per-student ledger, one row per (student, course). The
// structured sub-records (quiz results, badges, error patterns,
// recommendations) are data containers with no enforced cross-entity
// consistency.
type Progress struct {
	gorm.Model
	StudentID          uint   `gorm:"index:idx_progress_student_course;not null"`
	CourseID           uint   `gorm:"index:idx_progress_student_course;not null"`
	LessonID           *uint  `gorm:"index"`
	CompletionStatus   string `gorm:"default:'not-started'"`
	TimeSpent          int    `gorm:"default:0"`
	LastAccessed       *time.Time
	QuizResults        datatypes.JSON
	MasteryLevel       string
	UnderstandingScore int `gorm:"default:0"`
	ConfidenceScore    int `gorm:"default:0"`
	CurrentStreak      int `gorm:"default:0"`
	LongestStreak      int `gorm:"default:0"`
	Badges             datatypes.JSON
	ErrorPatterns      datatypes.JSON
	Recommendations    datatypes.JSON
}
