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

type CourseController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCourseController(db *gorm.DB, cfg *config.Config) *CourseController {
	return &CourseController{DB: db, Cfg: cfg}
}

type CreateCourseRequest struct {
	Title              string    `json:"title" validate:"required"`
	Description        string    `json:"description" validate:"required"`
	Subject            string    `json:"subject" validate:"required"`
	GradeLevel         string    `json:"gradeLevel" validate:"required"`
	StartDate          time.Time `json:"startDate" validate:"required"`
	EndDate            time.Time `json:"endDate" validate:"required"`
	LearningObjectives []string  `json:"learningObjectives"`
	Prerequisites      []string  `json:"prerequisites"`
	CoverImage         string    `json:"coverImage"`
}

func (cc *CourseController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input CreateCourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if !input.EndDate.After(input.StartDate) {
		return utils.BadRequest(c, "End date must be after start date")
	}

	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		Subject:     input.Subject,
		GradeLevel:  input.GradeLevel,
		TeacherID:   userID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    true,
		CoverImage:  input.CoverImage,
	}
	if input.LearningObjectives != nil {
		if course.LearningObjectives, err = utils.ToJSON(input.LearningObjectives); err != nil {
			return utils.BadRequest(c, "Invalid learning objectives")
		}
	}
	if input.Prerequisites != nil {
		if course.Prerequisites, err = utils.ToJSON(input.Prerequisites); err != nil {
			return utils.BadRequest(c, "Invalid prerequisites")
		}
	}

	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Course created successfully", fiber.Map{"course": course})
}

func (cc *CourseController) GetCourses(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, cc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	page, limit := pageParams(c, 10)

	query := cc.DB.Model(&models.Course{}).Where("is_active = ?", true)
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if gradeLevel := c.Query("gradeLevel"); gradeLevel != "" {
		query = query.Where("grade_level = ?", gradeLevel)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ServerError(c, err)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Paginated(c, fiber.Map{"courses": courses}, total, page, limit)
}

func (cc *CourseController) GetCourse(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, cc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.\"order\" ASC")
	}).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"course": course})
}

type AddLessonRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Content     string `json:"content" validate:"required"`
	VideoURL    string `json:"videoUrl"`
	Duration    int    `json:"duration"`
	Order       int    `json:"order"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

func (cc *CourseController) AddLesson(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.ServerError(c, err)
	}

	if course.TeacherID != userID {
		return utils.Forbidden(c, "Not authorized to modify this course")
	}

	var input AddLessonRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	lesson := models.Lesson{
		CourseID:    course.ID,
		Title:       input.Title,
		Description: input.Description,
		Content:     input.Content,
		VideoURL:    input.VideoURL,
		Duration:    input.Duration,
		Order:       input.Order,
	}
	if input.Difficulty != "" {
		lesson.Difficulty = input.Difficulty
	}
	if lesson.Order == 0 {
		var count int64
		cc.DB.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&count)
		lesson.Order = int(count) + 1
	}

	if err := cc.DB.Create(&lesson).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Lesson added successfully", fiber.Map{"lesson": lesson})
}
