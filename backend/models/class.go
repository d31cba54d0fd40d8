package models

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EnrollmentActive    = "active"
	EnrollmentInactive  = "inactive"
	EnrollmentSuspended = "suspended"
)

var (
	ErrCapacityReached = errors.New("class capacity reached")
)

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const joinCodeLength = 6

// Class is owned by exactly one teacher. EnrollmentCount caches the number
// of active enrollment rows and is recomputed on every membership mutation
// under the same lock that guards the mutation.
type Class struct {
	gorm.Model
	Name            string `gorm:"not null"`
	Subject         string `gorm:"not null"`
	GradeLevel      string `gorm:"not null"`
	Section         string
	Description     string
	TeacherID       uint `gorm:"index;not null"`
	Room            string
	AcademicYear    string
	Semester        string `gorm:"default:'Full Year'"`
	Capacity        int    `gorm:"default:30"`
	EnrollmentCount int    `gorm:"default:0"`
	IsActive        bool   `gorm:"default:true"`
	JoinCode        string `gorm:"uniqueIndex"`
	Schedule        datatypes.JSON
	Settings        datatypes.JSON
	Tags            datatypes.JSON

	Enrollments []ClassEnrollment `gorm:"foreignKey:ClassID"`
}

// ClassEnrollment rows are append-only: removal marks the row inactive
// instead of deleting it.
type ClassEnrollment struct {
	gorm.Model
	ClassID    uint `gorm:"index;not null"`
	StudentID  uint `gorm:"index;not null"`
	EnrolledAt time.Time
	Status     string `gorm:"default:active"`
}

// GenerateJoinCode draws 6 characters from [A-Z0-9] and retries until no
// existing class holds the code. Assigned once at creation, immutable
// thereafter.
func GenerateJoinCode(db *gorm.DB) (string, error) {
	for {
		code, err := randomJoinCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := db.Model(&Class{}).Where("join_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
}

func randomJoinCode() (string, error) {
	code := make([]byte, joinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(joinCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// AddStudentToClass enrolls a student, enforcing capacity at the moment of
// the add. Runs in its own transaction with the class row locked so two
// concurrent adds cannot both pass the capacity check. A full class rejects
// every add, even for a student who is already enrolled; below capacity,
// re-adding an actively enrolled student is a no-op.
func AddStudentToClass(db *gorm.DB, classID, studentID uint) (*Class, error) {
	var class Class
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&class, classID).Error; err != nil {
			return err
		}

		if class.EnrollmentCount >= class.Capacity {
			return ErrCapacityReached
		}

		var active int64
		if err := tx.Model(&ClassEnrollment{}).
			Where("class_id = ? AND student_id = ? AND status = ?", classID, studentID, EnrollmentActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return nil
		}

		enrollment := ClassEnrollment{
			ClassID:    classID,
			StudentID:  studentID,
			EnrolledAt: time.Now(),
			Status:     EnrollmentActive,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		return recountEnrollment(tx, &class)
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// RemoveStudentFromClass marks the student's enrollment inactive. A missing
// enrollment is a silent no-op.
func RemoveStudentFromClass(db *gorm.DB, classID, studentID uint) (*Class, error) {
	var class Class
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&class, classID).Error; err != nil {
			return err
		}

		var enrollment ClassEnrollment
		err := tx.Where("class_id = ? AND student_id = ?", classID, studentID).
			Order("created_at DESC").
			First(&enrollment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if enrollment.Status != EnrollmentInactive {
			enrollment.Status = EnrollmentInactive
			if err := tx.Save(&enrollment).Error; err != nil {
				return err
			}
		}

		return recountEnrollment(tx, &class)
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func recountEnrollment(tx *gorm.DB, class *Class) error {
	var active int64
	if err := tx.Model(&ClassEnrollment{}).
		Where("class_id = ? AND status = ?", class.ID, EnrollmentActive).
		Count(&active).Error; err != nil {
		return err
	}
	class.EnrollmentCount = int(active)
	return tx.Model(class).Update("enrollment_count", class.EnrollmentCount).Error
}
