package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ResourceLesson   = "lesson"
	ResourceQuiz     = "quiz"
	ResourceMaterial = "material"
)

const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionTrueFalse      = "true-false"
	QuestionShortAnswer    = "short-answer"
	QuestionEssay          = "essay"
)

// Resource is a teacher-owned lesson, quiz, or material. Type selects
// which field group must be populated; Validate enforces that per type.
type Resource struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string `gorm:"not null"`
	Type        string `gorm:"not null"`
	Subject     string `gorm:"not null"`
	Difficulty  string `gorm:"default:intermediate"`
	Duration    int    `gorm:"default:30"`
	Tags        datatypes.JSON

	// lesson fields
	YoutubeURL         string
	Content            string
	LearningObjectives datatypes.JSON

	// quiz fields
	TimeLimit    int  `gorm:"default:30"`
	PassingScore int  `gorm:"default:70"`
	MaxAttempts  int  `gorm:"default:3"`
	ShowAnswers  bool `gorm:"default:false"`

	// material fields
	FileURL  string
	FileType string
	FileSize int64

	TeacherID     uint    `gorm:"index;not null"`
	IsPublic      bool    `gorm:"default:false"`
	IsPublished   bool    `gorm:"default:false"`
	Views         int64   `gorm:"default:0"`
	Downloads     int64   `gorm:"default:0"`
	Attempts      int64   `gorm:"default:0"`
	AverageRating float64 `gorm:"default:0"`

	Questions []Question `gorm:"foreignKey:ResourceID"`
	Ratings   []Rating   `gorm:"foreignKey:ResourceID"`
}

type Question struct {
	gorm.Model
	ResourceID    uint   `gorm:"index;not null"`
	Question      string `gorm:"not null"`
	Type          string `gorm:"not null"`
	Options       datatypes.JSON
	CorrectAnswer string
	Points        int `gorm:"default:1"`
	Explanation   string
	Order         int
}

// Rating holds at most one row per (resource, student); rating again
// replaces the previous value.
type Rating struct {
	gorm.Model
	ResourceID uint `gorm:"index;not null"`
	StudentID  uint `gorm:"index;not null"`
	Rating     int  `gorm:"not null"`
	Comment    string
}

// Validate collects every violated type-specific rule instead of stopping
// at the first.
func (r *Resource) Validate() []string {
	var violations []string

	switch r.Type {
	case ResourceLesson:
		if r.Content == "" {
			violations = append(violations, "Lesson content is required")
		}
	case ResourceQuiz:
		if len(r.Questions) == 0 {
			violations = append(violations, "At least one question is required for quiz")
		}
		for i, q := range r.Questions {
			if q.Question == "" {
				violations = append(violations, fmt.Sprintf("Question %d is required", i+1))
			}
			if q.CorrectAnswer == "" && q.Type != QuestionEssay {
				violations = append(violations, fmt.Sprintf("Correct answer is required for question %d", i+1))
			}
			if q.Type == QuestionMultipleChoice && countOptions(q.Options) < 2 {
				violations = append(violations, fmt.Sprintf("At least 2 options are required for multiple choice question %d", i+1))
			}
		}
	case ResourceMaterial:
		if r.FileURL == "" {
			violations = append(violations, "File upload is required for study material")
		}
	default:
		violations = append(violations, "Resource type must be lesson, quiz or material")
	}

	return violations
}

func countOptions(options datatypes.JSON) int {
	if len(options) == 0 {
		return 0
	}
	var list []string
	if err := json.Unmarshal(options, &list); err != nil {
		return 0
	}
	return len(list)
}

// AverageRating is the simple arithmetic mean of all ratings, not weighted
// or decayed.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings))
}

// RateResource upserts the caller's rating and recomputes the cached
// average under the resource row lock.
func RateResource(db *gorm.DB, resourceID, studentID uint, rating int, comment string) (*Resource, int, error) {
	var resource Resource
	var total int
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&resource, resourceID).Error; err != nil {
			return err
		}

		var existing Rating
		err := tx.Where("resource_id = ? AND student_id = ?", resourceID, studentID).
			First(&existing).Error
		switch {
		case err == nil:
			existing.Rating = rating
			existing.Comment = comment
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := Rating{
				ResourceID: resourceID,
				StudentID:  studentID,
				Rating:     rating,
				Comment:    comment,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var ratings []Rating
		if err := tx.Where("resource_id = ?", resourceID).Find(&ratings).Error; err != nil {
			return err
		}
		total = len(ratings)
		resource.AverageRating = AverageRating(ratings)

		return tx.Model(&resource).Update("average_rating", resource.AverageRating).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &resource, total, nil
}
