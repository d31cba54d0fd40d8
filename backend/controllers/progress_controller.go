package controllers

import (
	"errors"
	"strconv"
	"time"

	"edutwin/backend/config"
	"edutwin/backend/models"
	"edutwin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetProgress returns the caller's ledger for one course; a missing row
// reads as a fresh not-started ledger rather than a 404.
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var progress models.Progress
	err = pc.DB.Where("student_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = models.Progress{
				StudentID:        userID,
				CourseID:         uint(courseID),
				CompletionStatus: models.ProgressNotStarted,
			}
			return utils.Success(c, fiber.StatusOK, "", fiber.Map{"progress": progress})
		}
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"progress": progress})
}

type UpdateProgressRequest struct {
	LessonID         *uint          `json:"lessonId"`
	CompletionStatus *string        `json:"completionStatus" validate:"omitempty,oneof=not-started in-progress completed"`
	TimeSpent        *int           `json:"timeSpent" validate:"omitempty,min=0"`
	QuizResult       map[string]any `json:"quizResult"`
	MasteryLevel     *string        `json:"masteryLevel" validate:"omitempty,oneof=basic intermediate advanced expert"`
	Badge            map[string]any `json:"badge"`
}

// UpdateProgress upserts the caller's ledger row for a course. Quiz results
// and badges are appended to their JSON collections.
func (pc *ProgressController) UpdateProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input UpdateProgressRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	var course models.Course
	if err := pc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.ServerError(c, err)
	}

	var progress models.Progress
	err = pc.DB.Where("student_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.Progress{
			StudentID:        userID,
			CourseID:         uint(courseID),
			CompletionStatus: models.ProgressInProgress,
		}
	} else if err != nil {
		return utils.ServerError(c, err)
	}

	if input.LessonID != nil {
		progress.LessonID = input.LessonID
	}
	if input.CompletionStatus != nil {
		progress.CompletionStatus = *input.CompletionStatus
	}
	if input.TimeSpent != nil {
		progress.TimeSpent += *input.TimeSpent
	}
	if input.MasteryLevel != nil {
		progress.MasteryLevel = *input.MasteryLevel
	}
	if input.QuizResult != nil {
		results, err := utils.AppendJSON(progress.QuizResults, input.QuizResult)
		if err != nil {
			return utils.BadRequest(c, "Invalid quiz result")
		}
		progress.QuizResults = results
	}
	if input.Badge != nil {
		badges, err := utils.AppendJSON(progress.Badges, input.Badge)
		if err != nil {
			return utils.BadRequest(c, "Invalid badge")
		}
		progress.Badges = badges
	}

	now := time.Now()
	progress.LastAccessed = &now

	if err := pc.DB.Save(&progress).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Progress updated successfully", fiber.Map{
		"progress": progress,
	})
}
