package controllers_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"edutwin/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgressDefaultsToFreshLedger(t *testing.T) {
	app, _, _ := newTestApp(t)

	teacherToken, _ := registerTeacher(t, app, "pr-teacher@example.com")
	studentToken, _ := registerStudent(t, app, "pr-fresh@example.com")
	courseID := createCourse(t, app, teacherToken)

	resp, err := app.Test(jsonRequest("GET",
		fmt.Sprintf("/api/progress/%d", courseID), nil, studentToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	progress := result["data"].(map[string]interface{})["progress"].(map[string]interface{})
	assert.Equal(t, "not-started", progress["CompletionStatus"])
	assert.Equal(t, float64(0), progress["TimeSpent"])
}

func TestUpdateProgressAccumulates(t *testing.T) {
	app, db, _ := newTestApp(t)

	teacherToken, _ := registerTeacher(t, app, "pr-teacher2@example.com")
	studentToken, studentID := registerStudent(t, app, "pr-student@example.com")
	courseID := createCourse(t, app, teacherToken)

	update := func(body map[string]interface{}) {
		resp, err := app.Test(jsonRequest("PUT",
			fmt.Sprintf("/api/progress/%d", courseID), body, studentToken), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	update(map[string]interface{}{
		"timeSpent":  15,
		"quizResult": map[string]interface{}{"quizId": 1, "score": 80},
	})
	update(map[string]interface{}{
		"timeSpent":        25,
		"completionStatus": "completed",
		"quizResult":       map[string]interface{}{"quizId": 2, "score": 90},
		"badge":            map[string]interface{}{"name": "Algebra star"},
	})

	var progress models.Progress
	require.NoError(t, db.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&progress).Error)
	assert.Equal(t, 40, progress.TimeSpent)
	assert.Equal(t, models.ProgressCompleted, progress.CompletionStatus)
	assert.NotNil(t, progress.LastAccessed)

	var quizResults []map[string]interface{}
	require.NoError(t, json.Unmarshal(progress.QuizResults, &quizResults))
	assert.Len(t, quizResults, 2)

	var badges []map[string]interface{}
	require.NoError(t, json.Unmarshal(progress.Badges, &badges))
	assert.Len(t, badges, 1)

	// A single ledger row per student and course.
	var rows int64
	db.Model(&models.Progress{}).Where("student_id = ? AND course_id = ?", studentID, courseID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestUpdateProgressValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	teacherToken, _ := registerTeacher(t, app, "pr-teacher3@example.com")
	studentToken, _ := registerStudent(t, app, "pr-student3@example.com")
	courseID := createCourse(t, app, teacherToken)

	resp, err := app.Test(jsonRequest("PUT",
		fmt.Sprintf("/api/progress/%d", courseID),
		map[string]interface{}{"completionStatus": "finished"}, studentToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PUT", "/api/progress/99999",
		map[string]interface{}{"timeSpent": 5}, studentToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
