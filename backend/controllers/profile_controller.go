package controllers

import (
	"fmt"
	"time"

	"edutwin/backend/config"
	"edutwin/backend/models"
	"edutwin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProfileController(db *gorm.DB, cfg *config.Config) *ProfileController {
	return &ProfileController{DB: db, Cfg: cfg}
}

func (pc *ProfileController) currentUser(c *fiber.Ctx, preloadProfiles bool) (*models.User, error) {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return nil, err
	}

	query := pc.DB
	if preloadProfiles {
		query = query.
			Preload("StudentProfile").
			Preload("TeacherProfile").
			Preload("ParentProfile")
	}

	var user models.User
	if err := query.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	user, err := pc.currentUser(c, true)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	fields := user.PublicFields()
	fields["isProfileComplete"] = user.IsProfileComplete()
	fields["isEmailVerified"] = user.IsEmailVerified

	switch user.Role {
	case models.RoleStudent:
		fields["studentProfile"] = user.StudentProfile
	case models.RoleTeacher:
		fields["teacherProfile"] = user.TeacherProfile
	case models.RoleParent:
		fields["parentProfile"] = user.ParentProfile
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"user": fields})
}

// UpdateProfileRequest deliberately has no password, role or email field;
// forbidden updates are unrepresentable rather than stripped at runtime.
type UpdateProfileRequest struct {
	FirstName   *string        `json:"firstName"`
	LastName    *string        `json:"lastName"`
	Avatar      *string        `json:"avatar"`
	Preferences map[string]any `json:"preferences"`

	// student fields
	GradeLevel    *string `json:"gradeLevel"`
	DateOfBirth   *string `json:"dateOfBirth"`
	School        *string `json:"school"`
	LearningStyle *string `json:"learningStyle"`

	// teacher fields
	Subjects       []string       `json:"subjects"`
	Qualifications map[string]any `json:"qualifications"`

	// parent fields
	Relationship            *string         `json:"relationship"`
	PhoneNumber             *string         `json:"phoneNumber"`
	NotificationPreferences map[string]bool `json:"notificationPreferences"`
}

func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	user, err := pc.currentUser(c, true)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input UpdateProfileRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Preferences != nil {
		preferences, err := utils.ToJSON(input.Preferences)
		if err != nil {
			return utils.BadRequest(c, "Invalid preferences")
		}
		user.Preferences = preferences
	}

	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		switch user.Role {
		case models.RoleStudent:
			profile := user.StudentProfile
			if profile == nil {
				profile = &models.StudentProfile{UserID: user.ID}
			}
			if input.GradeLevel != nil {
				profile.GradeLevel = *input.GradeLevel
			}
			if input.School != nil {
				profile.School = *input.School
			}
			if input.LearningStyle != nil {
				profile.LearningStyle = *input.LearningStyle
			}
			if input.DateOfBirth != nil {
				dob, err := time.Parse("2006-01-02", *input.DateOfBirth)
				if err != nil {
					return fmt.Errorf("dateOfBirth must be YYYY-MM-DD")
				}
				profile.DateOfBirth = &dob
			}
			user.StudentProfile = profile
			return tx.Save(profile).Error
		case models.RoleTeacher:
			profile := user.TeacherProfile
			if profile == nil {
				profile = &models.TeacherProfile{UserID: user.ID}
			}
			if input.School != nil {
				profile.School = *input.School
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
			user.TeacherProfile = profile
			return tx.Save(profile).Error
		case models.RoleParent:
			profile := user.ParentProfile
			if profile == nil {
				profile = &models.ParentProfile{UserID: user.ID}
			}
			if input.Relationship != nil {
				profile.Relationship = *input.Relationship
			}
			if input.PhoneNumber != nil {
				profile.PhoneNumber = *input.PhoneNumber
			}
			if input.NotificationPreferences != nil {
				prefs, err := utils.ToJSON(input.NotificationPreferences)
				if err != nil {
					return err
				}
				profile.NotificationPreferences = prefs
			}
			user.ParentProfile = profile
			return tx.Save(profile).Error
		}
		return nil
	})
	if err != nil {
		return utils.ServerError(c, err)
	}

	fields := user.PublicFields()
	fields["isProfileComplete"] = user.IsProfileComplete()

	return utils.Success(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": fields})
}

type UpdateEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (pc *ProfileController) UpdateEmail(c *fiber.Ctx) error {
	user, err := pc.currentUser(c, false)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input UpdateEmailRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Current password is incorrect")
	}

	var existing models.User
	if err := pc.DB.Where("email = ? AND id <> ? AND is_active = ?", input.Email, user.ID, true).
		First(&existing).Error; err == nil {
		return utils.BadRequest(c, "Email already in use")
	}

	// Changing the address always requires re-verification.
	updates := map[string]interface{}{
		"email":             input.Email,
		"is_email_verified": false,
	}
	if err := pc.DB.Model(user).Updates(updates).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK,
		"Email updated successfully. Please verify your new email address.", nil)
}

type UploadAvatarRequest struct {
	AvatarURL string `json:"avatarUrl" validate:"required"`
}

func (pc *ProfileController) UploadAvatar(c *fiber.Ctx) error {
	user, err := pc.currentUser(c, false)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input UploadAvatarRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if err := pc.DB.Model(user).Update("avatar", input.AvatarURL).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Avatar updated successfully", fiber.Map{
		"avatar": input.AvatarURL,
	})
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// DeleteAccount soft-deletes: the account is deactivated and its email is
// mutated to a unique sentinel so the original address can be re-registered.
func (pc *ProfileController) DeleteAccount(c *fiber.Ctx) error {
	user, err := pc.currentUser(c, false)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input DeleteAccountRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Password is incorrect")
	}

	sentinel := fmt.Sprintf("deleted-%s@%s", uuid.NewString(), user.Email)
	updates := map[string]interface{}{
		"is_active": false,
		"email":     sentinel,
	}
	if err := pc.DB.Model(user).Updates(updates).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, "Account deleted successfully", nil)
}
