package controllers

import (
	"errors"
	"strconv"

	"edutwin/backend/config"
	"edutwin/backend/models"
	"edutwin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClassController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewClassController(db *gorm.DB, cfg *config.Config) *ClassController {
	return &ClassController{DB: db, Cfg: cfg}
}

// ownedClass resolves the class and verifies the caller is its teacher.
// Ownership is re-derived from the stored teacher reference on every call.
func (cc *ClassController) ownedClass(c *fiber.Ctx) (*models.Class, error) {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}

	classID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid class ID")
	}

	var class models.Class
	if err := cc.DB.First(&class, classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Class not found")
		}
		return nil, utils.ServerError(c, err)
	}

	if class.TeacherID != userID {
		return nil, utils.Forbidden(c, "Not authorized to access this class")
	}

	return &class, nil
}

type CreateClassRequest struct {
	Name         string         `json:"name" validate:"required,max=100"`
	Subject      string         `json:"subject" validate:"required"`
	GradeLevel   string         `json:"gradeLevel" validate:"required"`
	Section      string         `json:"section" validate:"max=10"`
	Description  string         `json:"description" validate:"max=500"`
	Room         string         `json:"room" validate:"max=50"`
	AcademicYear string         `json:"academicYear" validate:"required"`
	Semester     string         `json:"semester"`
	Capacity     int            `json:"capacity" validate:"omitempty,min=1,max=100"`
	Schedule     map[string]any `json:"schedule"`
	Settings     map[string]any `json:"settings"`
	Tags         []string       `json:"tags"`
}

func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input CreateClassRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	joinCode, err := models.GenerateJoinCode(cc.DB)
	if err != nil {
		return utils.ServerError(c, err)
	}

	class := models.Class{
		Name:         input.Name,
		Subject:      input.Subject,
		GradeLevel:   input.GradeLevel,
		Section:      input.Section,
		Description:  input.Description,
		Room:         input.Room,
		AcademicYear: input.AcademicYear,
		TeacherID:    userID,
		IsActive:     true,
		JoinCode:     joinCode,
	}
	if input.Semester != "" {
		class.Semester = input.Semester
	}
	class.Capacity = 30
	if input.Capacity > 0 {
		class.Capacity = input.Capacity
	}
	if input.Schedule != nil {
		if class.Schedule, err = utils.ToJSON(input.Schedule); err != nil {
			return utils.BadRequest(c, "Invalid schedule")
		}
	}
	if input.Settings != nil {
		if class.Settings, err = utils.ToJSON(input.Settings); err != nil {
			return utils.BadRequest(c, "Invalid settings")
		}
	}
	if input.Tags != nil {
		if class.Tags, err = utils.ToJSON(input.Tags); err != nil {
			return utils.BadRequest(c, "Invalid tags")
		}
	}

	if err := cc.DB.Create(&class).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Class created successfully", fiber.Map{"class": class})
}

func (cc *ClassController) GetMyClasses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	page, limit := pageParams(c, 10)

	query := cc.DB.Model(&models.Class{}).Where("teacher_id = ?", userID)
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ServerError(c, err)
	}

	var classes []models.Class
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&classes).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Paginated(c, fiber.Map{"classes": classes}, total, page, limit)
}

func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	class, err := cc.ownedClass(c)
	if err != nil {
		return err
	}

	if err := cc.DB.Preload("Enrollments").First(class, class.ID).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"class": class})
}

type UpdateClassRequest struct {
	Name        *string        `json:"name" validate:"omitempty,max=100"`
	Subject     *string        `json:"subject"`
	GradeLevel  *string        `json:"gradeLevel"`
	Section     *string        `json:"section" validate:"omitempty,max=10"`
	Description *string        `json:"description" validate:"omitempty,max=500"`
	Room        *string        `json:"room" validate:"omitempty,max=50"`
	Semester    *string        `json:"semester"`
	Capacity    *int           `json:"capacity" validate:"omitempty,min=1,max=100"`
	IsActive    *bool          `json:"isActive"`
	Schedule    map[string]any `json:"schedule"`
	Settings    map[string]any `json:"settings"`
	Tags        []string       `json:"tags"`
}

// UpdateClass never touches the join code or the cached enrollment count.
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	class, err := cc.ownedClass(c)
	if err != nil {
		return err
	}

	var input UpdateClassRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if input.Name != nil {
		class.Name = *input.Name
	}
	if input.Subject != nil {
		class.Subject = *input.Subject
	}
	if input.GradeLevel != nil {
		class.GradeLevel = *input.GradeLevel
	}
	if input.Section != nil {
		class.Section = *input.Section
	}
	if input.Description != nil {
		class.Description = *input.Description
	}
	if input.Room != nil {
		class.Room = *input.Room
	}
	if input.Semester != nil {
		class.Semester = *input.Semester
	}
	if input.Capacity != nil {
		class.Capacity = *input.Capacity
	}
	if input.IsActive != nil {
		class.IsActive = *input.IsActive
	}
	if input.Schedule != nil {
		if class.Schedule, err = utils.ToJSON(input.Schedule); err != nil {
			return utils.BadRequest(c, "Invalid schedule")
		}
	}
	if input.Settings != nil {
		if class.Settings, err = utils.ToJSON(input.Settings); err != nil {
			return utils.BadRequest(c, "Invalid settings")
		}
	}
	if input.Tags != nil {
		if class.Tags, err = utils.ToJSON(input.Tags); err != nil {
			return utils.BadRequest(c, "Invalid tags")
		}
	}

	if err := cc.DB.Save(class).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Class updated successfully", fiber.Map{"class": class})
}

func (cc *ClassController) DeleteClass(c *fiber.Ctx) error {
	class, err := cc.ownedClass(c)
	if err != nil {
		return err
	}

	if err := cc.DB.Delete(class).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Class deleted successfully", nil)
}

type AddStudentRequest struct {
	StudentID uint `json:"studentId" validate:"required"`
}

func (cc *ClassController) AddStudent(c *fiber.Ctx) error {
	class, err := cc.ownedClass(c)
	if err != nil {
		return err
	}

	var input AddStudentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	var student models.User
	if err := cc.DB.First(&student, input.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Student not found")
		}
		return utils.ServerError(c, err)
	}
	if student.Role != models.RoleStudent {
		return utils.BadRequest(c, "User is not a student")
	}

	updated, err := models.AddStudentToClass(cc.DB, class.ID, student.ID)
	if err != nil {
		if errors.Is(err, models.ErrCapacityReached) {
			return utils.BadRequest(c, "Class capacity reached")
		}
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Student added successfully", fiber.Map{
		"enrollmentCount": updated.EnrollmentCount,
	})
}

func (cc *ClassController) RemoveStudent(c *fiber.Ctx) error {
	class, err := cc.ownedClass(c)
	if err != nil {
		return err
	}

	studentID, err := strconv.Atoi(c.Params("studentId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid student ID")
	}

	updated, err := models.RemoveStudentFromClass(cc.DB, class.ID, uint(studentID))
	if err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Student removed successfully", fiber.Map{
		"enrollmentCount": updated.EnrollmentCount,
	})
}

// pageParams reads 1-indexed page/limit query params with a per-endpoint
// default limit.
func pageParams(c *fiber.Ctx, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}
