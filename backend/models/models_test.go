package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Class{}, &ClassEnrollment{}, &Assignment{}, &Submission{},
		&Resource{}, &Question{}, &Rating{}))
	return db
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("student"))
	assert.True(t, ValidRole("teacher"))
	assert.True(t, ValidRole("parent"))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
}

func TestAverageScoreSkipsUngraded(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	assert.Equal(t, float64(0), AverageScore(nil))
	assert.Equal(t, float64(0), AverageScore([]Submission{{}, {}}))
	assert.InDelta(t, 85.0, AverageScore([]Submission{
		{Score: score(80)},
		{},
		{Score: score(90)},
	}), 0.001)
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, float64(0), AverageRating(nil))
	assert.InDelta(t, 4.0, AverageRating([]Rating{
		{Rating: 5},
		{Rating: 3},
	}), 0.001)
}

func TestIsProfileComplete(t *testing.T) {
	dob := time.Date(2010, 4, 1, 0, 0, 0, 0, time.UTC)

	student := User{Role: RoleStudent, StudentProfile: &StudentProfile{
		GradeLevel: "Grade 9", DateOfBirth: &dob, School: "Springfield High",
	}}
	assert.True(t, student.IsProfileComplete())

	student.StudentProfile.School = ""
	assert.False(t, student.IsProfileComplete())

	teacher := User{Role: RoleTeacher, TeacherProfile: &TeacherProfile{
		Subjects: datatypes.JSON([]byte(`["Mathematics"]`)),
		School:   "Springfield High",
	}}
	assert.True(t, teacher.IsProfileComplete())

	teacher.TeacherProfile.Subjects = datatypes.JSON([]byte(`[]`))
	assert.False(t, teacher.IsProfileComplete())

	parent := User{Role: RoleParent}
	assert.False(t, parent.IsProfileComplete(), "a missing role payload reads as incomplete")
}

func TestGenerateJoinCode(t *testing.T) {
	db := testDB(t)

	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateJoinCode(db)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		assert.False(t, seen[code])
		seen[code] = true

		require.NoError(t, db.Create(&Class{
			Name:     "C",
			Subject:  "Mathematics",
			JoinCode: code,
		}).Error)
	}
}

func TestAddStudentToClassCapacity(t *testing.T) {
	db := testDB(t)

	class := Class{Name: "Small", Subject: "Mathematics", Capacity: 2, JoinCode: "AAAAA1"}
	require.NoError(t, db.Create(&class).Error)

	updated, err := AddStudentToClass(db, class.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.EnrollmentCount)

	// Below capacity, the same student again is a no-op.
	updated, err = AddStudentToClass(db, class.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.EnrollmentCount)

	updated, err = AddStudentToClass(db, class.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.EnrollmentCount)

	_, err = AddStudentToClass(db, class.ID, 3)
	assert.ErrorIs(t, err, ErrCapacityReached)

	// A full class rejects even an already-enrolled student.
	_, err = AddStudentToClass(db, class.ID, 1)
	assert.ErrorIs(t, err, ErrCapacityReached)
}

func TestRemoveStudentFromClass(t *testing.T) {
	db := testDB(t)

	class := Class{Name: "Small", Subject: "Mathematics", Capacity: 5, JoinCode: "AAAAA2"}
	require.NoError(t, db.Create(&class).Error)

	_, err := AddStudentToClass(db, class.ID, 1)
	require.NoError(t, err)

	updated, err := RemoveStudentFromClass(db, class.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.EnrollmentCount)

	// Removing someone who never enrolled stays quiet.
	updated, err = RemoveStudentFromClass(db, class.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.EnrollmentCount)
}

func TestResourceValidateCollectsViolations(t *testing.T) {
	quiz := Resource{Type: ResourceQuiz, Questions: []Question{
		{Type: QuestionMultipleChoice},
	}}
	violations := quiz.Validate()
	assert.Len(t, violations, 3, "empty text, missing answer and too few options all reported")

	essay := Resource{Type: ResourceQuiz, Questions: []Question{
		{Question: "Discuss fractions", Type: QuestionEssay},
	}}
	assert.Empty(t, essay.Validate(), "essay questions need no correct answer")

	lesson := Resource{Type: ResourceLesson}
	assert.Len(t, lesson.Validate(), 1)
	lesson.Content = "Body"
	assert.Empty(t, lesson.Validate())

	material := Resource{Type: ResourceMaterial}
	assert.Len(t, material.Validate(), 1)

	unknown := Resource{Type: "podcast"}
	assert.Len(t, unknown.Validate(), 1)
}

func TestRateResourceUpserts(t *testing.T) {
	db := testDB(t)

	resource := Resource{Title: "Quiz", Description: "d", Type: ResourceQuiz, Subject: "Mathematics", TeacherID: 1}
	require.NoError(t, db.Create(&resource).Error)

	rated, total, err := RateResource(db, resource.ID, 10, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.InDelta(t, 5.0, rated.AverageRating, 0.001)

	rated, total, err = RateResource(db, resource.ID, 11, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.InDelta(t, 4.0, rated.AverageRating, 0.001)

	rated, total, err = RateResource(db, resource.ID, 10, 1, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.InDelta(t, 2.0, rated.AverageRating, 0.001)
}

func TestGradeSubmissionRecomputesAverage(t *testing.T) {
	db := testDB(t)

	assignment := Assignment{Title: "HW", Subject: "Mathematics", DueDate: time.Now(), MaxScore: 100, TeacherID: 1, ClassID: 1, Status: AssignmentActive}
	require.NoError(t, db.Create(&assignment).Error)
	for _, studentID := range []uint{1, 2, 3} {
		require.NoError(t, db.Create(&Submission{
			AssignmentID: assignment.ID,
			StudentID:    studentID,
			SubmittedAt:  time.Now(),
			FileURL:      "https://files/x.pdf",
		}).Error)
	}

	graded, err := GradeSubmission(db, assignment.ID, 1, 80, "good")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, graded.AverageScore, 0.001)

	graded, err = GradeSubmission(db, assignment.ID, 2, 90, "")
	require.NoError(t, err)
	assert.InDelta(t, 85.0, graded.AverageScore, 0.001)

	var submission Submission
	require.NoError(t, db.Where("assignment_id = ? AND student_id = ?", assignment.ID, 1).
		First(&submission).Error)
	require.NotNil(t, submission.Score)
	assert.Equal(t, 80.0, *submission.Score)
	assert.NotNil(t, submission.GradedAt)

	_, err = GradeSubmission(db, assignment.ID, 99, 50, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
