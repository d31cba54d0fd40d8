package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AssignmentDraft     = "draft"
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
)

// Assignment is owned by one teacher and scoped to one class.
type Assignment struct {
	gorm.Model
	Title           string `gorm:"not null"`
	Description     string
	Subject         string
	DueDate         time.Time
	MaxScore        float64 `gorm:"default:100"`
	Instructions    string
	Attachments     datatypes.JSON
	Status          string  `gorm:"default:draft"`
	TeacherID       uint    `gorm:"index;not null"`
	ClassID         uint    `gorm:"index;not null"`
	AverageScore    float64 `gorm:"default:0"`
	SubmissionCount int     `gorm:"default:0"`

	Submissions []Submission `gorm:"foreignKey:AssignmentID"`
}

// Submission holds at most one entry per student. Score stays nil until
// the submission is graded.
type Submission struct {
	gorm.Model
	AssignmentID uint `gorm:"index;not null"`
	StudentID    uint `gorm:"index;not null"`
	SubmittedAt  time.Time
	FileURL      string
	Score        *float64
	Feedback     string
	GradedAt     *time.Time
}

// AverageScore computes the mean over graded submissions only; ungraded
// submissions are excluded, not counted as zero.
func AverageScore(submissions []Submission) float64 {
	var sum float64
	var graded int
	for _, sub := range submissions {
		if sub.Score != nil {
			sum += *sub.Score
			graded++
		}
	}
	if graded == 0 {
		return 0
	}
	return sum / float64(graded)
}

// GradeSubmission records a score and feedback for a student's submission
// and recomputes the assignment's cached average under the assignment row
// lock.
func GradeSubmission(db *gorm.DB, assignmentID, studentID uint, score float64, feedback string) (*Assignment, error) {
	var assignment Assignment
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&assignment, assignmentID).Error; err != nil {
			return err
		}

		var submission Submission
		if err := tx.Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
			First(&submission).Error; err != nil {
			return err
		}

		now := time.Now()
		submission.Score = &score
		submission.Feedback = feedback
		submission.GradedAt = &now
		if err := tx.Save(&submission).Error; err != nil {
			return err
		}

		var submissions []Submission
		if err := tx.Where("assignment_id = ?", assignmentID).Find(&submissions).Error; err != nil {
			return err
		}
		assignment.AverageScore = AverageScore(submissions)
		assignment.SubmissionCount = len(submissions)

		return tx.Model(&assignment).Updates(map[string]interface{}{
			"average_score":    assignment.AverageScore,
			"submission_count": assignment.SubmissionCount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}
