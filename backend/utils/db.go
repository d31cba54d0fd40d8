package utils

import (
	"fmt"

	"edutwin/backend/config"
	"edutwin/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.TeacherProfile{},
		&models.ParentProfile{},
		&models.Class{},
		&models.ClassEnrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Resource{},
		&models.Question{},
		&models.Rating{},
		&models.Course{},
		&models.Lesson{},
		&models.Progress{},
		&models.Notification{},
	)
}
