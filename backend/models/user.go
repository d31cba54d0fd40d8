package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
)

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// User is the base identity record shared by all roles. The role field is
// immutable after creation; exactly one of the profile tables holds a row
// for this user, selected by Role.
type User struct {
	gorm.Model
	FirstName         string `gorm:"not null"`
	LastName          string `gorm:"not null"`
	Email             string `gorm:"uniqueIndex;not null"`
	PasswordHash      string `gorm:"not null" json:"-"`
	Role              string `gorm:"not null"`
	Avatar            string
	Preferences       datatypes.JSON
	IsActive          bool `gorm:"default:true"`
	IsEmailVerified   bool `gorm:"default:false"`
	LastLogin         *time.Time
	ProfileCompletion int `gorm:"default:0"`

	StudentProfile *StudentProfile `gorm:"foreignKey:UserID"`
	TeacherProfile *TeacherProfile `gorm:"foreignKey:UserID"`
	ParentProfile  *ParentProfile  `gorm:"foreignKey:UserID"`
}

type StudentProfile struct {
	gorm.Model
	UserID        uint `gorm:"uniqueIndex;not null"`
	GradeLevel    string
	DateOfBirth   *time.Time
	School        string
	LearningStyle string `gorm:"default:visual"`

	Parents []User   `gorm:"many2many:student_parents"`
	Courses []Course `gorm:"many2many:student_courses"`
}

type TeacherProfile struct {
	gorm.Model
	UserID         uint           `gorm:"uniqueIndex;not null"`
	Subjects       datatypes.JSON // array of subject names
	Qualifications datatypes.JSON
	School         string
}

type ParentProfile struct {
	gorm.Model
	UserID                  uint `gorm:"uniqueIndex;not null"`
	Relationship            string
	PhoneNumber             string
	NotificationPreferences datatypes.JSON

	Children []User `gorm:"many2many:parent_children"`
}

// SubjectList unmarshals the subjects JSON column. An empty or broken
// column reads as no subjects.
func (t *TeacherProfile) SubjectList() []string {
	var subjects []string
	if len(t.Subjects) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Subjects, &subjects); err != nil {
		return nil
	}
	return subjects
}

// IsProfileComplete derives completeness from the role-specific required
// fields. Advisory only, never enforced.
func (u *User) IsProfileComplete() bool {
	switch u.Role {
	case RoleStudent:
		p := u.StudentProfile
		return p != nil && p.GradeLevel != "" && p.DateOfBirth != nil && p.School != ""
	case RoleTeacher:
		p := u.TeacherProfile
		return p != nil && len(p.SubjectList()) > 0 && p.School != ""
	case RoleParent:
		p := u.ParentProfile
		return p != nil && p.PhoneNumber != "" && p.Relationship != ""
	}
	return false
}

// PublicFields is the identity shape returned by auth and profile
// endpoints; the password hash never leaves the model.
func (u *User) PublicFields() map[string]interface{} {
	return map[string]interface{}{
		"id":                u.ID,
		"firstName":         u.FirstName,
		"lastName":          u.LastName,
		"email":             u.Email,
		"role":              u.Role,
		"avatar":            u.Avatar,
		"preferences":       u.Preferences,
		"profileCompletion": u.ProfileCompletion,
		"lastLogin":         u.LastLogin,
	}
}
