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

type AssignmentController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAssignmentController(db *gorm.DB, cfg *config.Config) *AssignmentController {
	return &AssignmentController{DB: db, Cfg: cfg}
}

func (ac *AssignmentController) ownedAssignment(c *fiber.Ctx) (*models.Assignment, error) {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}

	assignmentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid assignment ID")
	}

	var assignment models.Assignment
	if err := ac.DB.First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Assignment not found")
		}
		return nil, utils.ServerError(c, err)
	}

	if assignment.TeacherID != userID {
		return nil, utils.Forbidden(c, "Not authorized to access this assignment")
	}

	return &assignment, nil
}

type CreateAssignmentRequest struct {
	ClassID      uint             `json:"classId" validate:"required"`
	Title        string           `json:"title" validate:"required,max=100"`
	Description  string           `json:"description" validate:"max=500"`
	Subject      string           `json:"subject" validate:"required"`
	DueDate      time.Time        `json:"dueDate" validate:"required"`
	MaxScore     float64          `json:"maxScore" validate:"omitempty,min=0"`
	Instructions string           `json:"instructions" validate:"max=2000"`
	Attachments  []map[string]any `json:"attachments"`
}

func (ac *AssignmentController) CreateAssignment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input CreateAssignmentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	// The caller must teach the target class.
	var class models.Class
	if err := ac.DB.Where("id = ? AND teacher_id = ?", input.ClassID, userID).
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Forbidden(c, "Not authorized to create assignments for this class")
		}
		return utils.ServerError(c, err)
	}

	assignment := models.Assignment{
		Title:        input.Title,
		Description:  input.Description,
		Subject:      input.Subject,
		DueDate:      input.DueDate,
		Instructions: input.Instructions,
		Status:       models.AssignmentDraft,
		TeacherID:    userID,
		ClassID:      input.ClassID,
	}
	assignment.MaxScore = 100
	if input.MaxScore > 0 {
		assignment.MaxScore = input.MaxScore
	}
	if input.Attachments != nil {
		if assignment.Attachments, err = utils.ToJSON(input.Attachments); err != nil {
			return utils.BadRequest(c, "Invalid attachments")
		}
	}

	if err := ac.DB.Create(&assignment).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Assignment created successfully", fiber.Map{
		"assignment": assignment,
	})
}

func (ac *AssignmentController) GetMyAssignments(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	page, limit := pageParams(c, 10)

	query := ac.DB.Model(&models.Assignment{}).Where("teacher_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ServerError(c, err)
	}

	var assignments []models.Assignment
	if err := query.Order("due_date ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&assignments).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Paginated(c, fiber.Map{"assignments": assignments}, total, page, limit)
}

func (ac *AssignmentController) GetAssignment(c *fiber.Ctx) error {
	assignment, err := ac.ownedAssignment(c)
	if err != nil {
		return err
	}

	if err := ac.DB.Preload("Submissions").First(assignment, assignment.ID).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"assignment": assignment})
}

type UpdateAssignmentRequest struct {
	Title        *string    `json:"title" validate:"omitempty,max=100"`
	Description  *string    `json:"description" validate:"omitempty,max=500"`
	Subject      *string    `json:"subject"`
	DueDate      *time.Time `json:"dueDate"`
	MaxScore     *float64   `json:"maxScore" validate:"omitempty,min=0"`
	Instructions *string    `json:"instructions" validate:"omitempty,max=2000"`
	Status       *string    `json:"status" validate:"omitempty,oneof=completed"`
}

// UpdateAssignment edits assignment fields. The only status transition it
// accepts is active -> completed; draft/active flips go through
// TogglePublish.
func (ac *AssignmentController) UpdateAssignment(c *fiber.Ctx) error {
	assignment, err := ac.ownedAssignment(c)
	if err != nil {
		return err
	}

	var input UpdateAssignmentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if input.Title != nil {
		assignment.Title = *input.Title
	}
	if input.Description != nil {
		assignment.Description = *input.Description
	}
	if input.Subject != nil {
		assignment.Subject = *input.Subject
	}
	if input.DueDate != nil {
		assignment.DueDate = *input.DueDate
	}
	if input.MaxScore != nil {
		assignment.MaxScore = *input.MaxScore
	}
	if input.Instructions != nil {
		assignment.Instructions = *input.Instructions
	}
	if input.Status != nil {
		if assignment.Status != models.AssignmentActive {
			return utils.BadRequest(c, "Only active assignments can be completed")
		}
		assignment.Status = models.AssignmentCompleted
	}

	if err := ac.DB.Save(assignment).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Assignment updated successfully", fiber.Map{
		"assignment": assignment,
	})
}

func (ac *AssignmentController) DeleteAssignment(c *fiber.Ctx) error {
	assignment, err := ac.ownedAssignment(c)
	if err != nil {
		return err
	}

	if err := ac.DB.Delete(assignment).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Assignment deleted successfully", nil)
}

// TogglePublish flips draft <-> active and never reaches completed.
func (ac *AssignmentController) TogglePublish(c *fiber.Ctx) error {
	assignment, err := ac.ownedAssignment(c)
	if err != nil {
		return err
	}

	if assignment.Status == models.AssignmentActive {
		assignment.Status = models.AssignmentDraft
	} else {
		assignment.Status = models.AssignmentActive
	}

	if err := ac.DB.Model(assignment).Update("status", assignment.Status).Error; err != nil {
		return utils.ServerError(c, err)
	}

	message := "Assignment unpublished successfully"
	if assignment.Status == models.AssignmentActive {
		message = "Assignment published successfully"
	}

	return utils.Success(c, fiber.StatusOK, message, fiber.Map{"assignment": assignment})
}

type SubmitAssignmentRequest struct {
	FileURL string `json:"fileUrl" validate:"required"`
}

// SubmitAssignment records or replaces the calling student's submission.
func (ac *AssignmentController) SubmitAssignment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	assignmentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid assignment ID")
	}

	var input SubmitAssignmentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	var assignment models.Assignment
	if err := ac.DB.First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Assignment not found")
		}
		return utils.ServerError(c, err)
	}

	if assignment.Status != models.AssignmentActive {
		return utils.BadRequest(c, "Assignment is not accepting submissions")
	}

	// Must be actively enrolled in the assignment's class.
	var enrolled int64
	if err := ac.DB.Model(&models.ClassEnrollment{}).
		Where("class_id = ? AND student_id = ? AND status = ?",
			assignment.ClassID, userID, models.EnrollmentActive).
		Count(&enrolled).Error; err != nil {
		return utils.ServerError(c, err)
	}
	if enrolled == 0 {
		return utils.Forbidden(c, "Not enrolled in this class")
	}

	var submission models.Submission
	err = ac.DB.Where("assignment_id = ? AND student_id = ?", assignmentID, userID).
		First(&submission).Error
	switch {
	case err == nil:
		submission.FileURL = input.FileURL
		submission.SubmittedAt = time.Now()
		err = ac.DB.Save(&submission).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			AssignmentID: uint(assignmentID),
			StudentID:    userID,
			SubmittedAt:  time.Now(),
			FileURL:      input.FileURL,
		}
		err = ac.DB.Create(&submission).Error
	}
	if err != nil {
		return utils.ServerError(c, err)
	}

	if err := ac.DB.Model(&models.Assignment{}).
		Where("id = ?", assignmentID).
		Update("submission_count", ac.DB.Model(&models.Submission{}).
			Select("COUNT(*)").Where("assignment_id = ?", assignmentID)).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Assignment submitted successfully", fiber.Map{
		"submission": submission,
	})
}

type GradeSubmissionRequest struct {
	Score    float64 `json:"score" validate:"min=0"`
	Feedback string  `json:"feedback"`
}

func (ac *AssignmentController) GradeSubmission(c *fiber.Ctx) error {
	assignment, err := ac.ownedAssignment(c)
	if err != nil {
		return err
	}

	studentID, err := strconv.Atoi(c.Params("studentId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid student ID")
	}

	var input GradeSubmissionRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if input.Score > assignment.MaxScore {
		return utils.BadRequest(c, "Score exceeds the assignment's max score")
	}

	graded, err := models.GradeSubmission(ac.DB, assignment.ID, uint(studentID), input.Score, input.Feedback)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Submission not found")
		}
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Submission graded successfully", fiber.Map{
		"averageScore": graded.AverageScore,
	})
}
