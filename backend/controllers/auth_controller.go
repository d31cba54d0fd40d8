package controllers

import (
	"errors"
	"time"

	"edutwin/backend/config"
	"edutwin/backend/models"
	"edutwin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required"`

	// student fields
	GradeLevel    string `json:"gradeLevel"`
	DateOfBirth   string `json:"dateOfBirth"` // YYYY-MM-DD
	School        string `json:"school"`
	LearningStyle string `json:"learningStyle"`

	// teacher fields
	Subjects       []string       `json:"subjects"`
	Qualifications map[string]any `json:"qualifications"`

	// parent fields
	Relationship            string          `json:"relationship"`
	PhoneNumber             string          `json:"phoneNumber"`
	NotificationPreferences map[string]bool `json:"notificationPreferences"`
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if !models.ValidRole(input.Role) {
		return utils.BadRequest(c, "Invalid role")
	}

	var existing models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.BadRequest(c, "User already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), ac.Cfg.BcryptCost)
	if err != nil {
		return utils.ServerError(c, err)
	}

	user := models.User{
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Email:             input.Email,
		PasswordHash:      string(hashedPassword),
		Role:              input.Role,
		IsActive:          true,
		ProfileCompletion: 20,
	}

	// Identity and role payload are created in one step.
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		switch input.Role {
		case models.RoleStudent:
			profile := models.StudentProfile{
				UserID:     user.ID,
				GradeLevel: input.GradeLevel,
				School:     input.School,
			}
			if input.LearningStyle != "" {
				profile.LearningStyle = input.LearningStyle
			}
			if input.DateOfBirth != "" {
				dob, err := time.Parse("2006-01-02", input.DateOfBirth)
				if err != nil {
					return errors.New("dateOfBirth must be YYYY-MM-DD")
				}
				profile.DateOfBirth = &dob
			}
			return tx.Create(&profile).Error
		case models.RoleTeacher:
			profile := models.TeacherProfile{
				UserID: user.ID,
				School: input.School,
			}
			if input.Subjects != nil {
				subjects, err := utils.ToJSON(input.Subjects)
				if err != nil {
					return err
				}
				profile.Subjects = subjects
			}
			if input.Qualifications != nil {
				qualifications, err := utils.ToJSON(input.Qualifications)
				if err != nil {
					return err
				}
				profile.Qualifications = qualifications
			}
			return tx.Create(&profile).Error
		case models.RoleParent:
			profile := models.ParentProfile{
				UserID:       user.ID,
				Relationship: input.Relationship,
				PhoneNumber:  input.PhoneNumber,
			}
			if input.NotificationPreferences != nil {
				prefs, err := utils.ToJSON(input.NotificationPreferences)
				if err != nil {
					return err
				}
				profile.NotificationPreferences = prefs
			}
			return tx.Create(&profile).Error
		}
		return nil
	})
	if err != nil {
		return utils.ServerError(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, "Registered successfully", fiber.Map{
		"token": token,
		"user":  user.PublicFields(),
	})
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.ServerError(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	if !user.IsActive {
		return utils.Unauthorized(c, "Account is deactivated")
	}

	now := time.Now()
	user.LastLogin = &now
	if err := ac.DB.Model(&user).Update("last_login", now).Error; err != nil {
		return utils.ServerError(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{
		"token": token,
		"user":  user.PublicFields(),
	})
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ac.DB.
		Preload("StudentProfile").
		Preload("TeacherProfile").
		Preload("ParentProfile").
		First(&user, userID).Error; err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	fields := user.PublicFields()
	fields["isProfileComplete"] = user.IsProfileComplete()
	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"user": fields})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input ChangePasswordRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return utils.Unauthorized(c, "Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), ac.Cfg.BcryptCost)
	if err != nil {
		return utils.ServerError(c, err)
	}

	if err := ac.DB.Model(&user).Update("password_hash", string(hashedPassword)).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Password updated successfully", nil)
}

// Logout only acknowledges; tokens are stateless and discarded client-side.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, "Logged out successfully", nil)
}
