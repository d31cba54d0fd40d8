package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	gorm.Model
	Title              string `gorm:"not null"`
	Description        string `gorm:"not null"`
	Subject            string `gorm:"not null"`
	GradeLevel         string `gorm:"not null"`
	TeacherID          uint   `gorm:"index;not null"`
	StartDate          time.Time
	EndDate            time.Time
	IsActive           bool `gorm:"default:true"`
	LearningObjectives datatypes.JSON
	Prerequisites      datatypes.JSON
	CoverImage         string

	Lessons []Lesson `gorm:"foreignKey:CourseID"`
}

type Lesson struct {
	gorm.Model
	CourseID    uint   `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Description string
	Content     string `gorm:"not null"`
	VideoURL    string
	Duration    int
	Order       int
	IsPublished bool   `gorm:"default:false"`
	Difficulty  string `gorm:"default:intermediate"`
}
