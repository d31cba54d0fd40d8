package controllers_test

import (
	"testing"

	"edutwin/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterInvalidRole(t *testing.T) {
	app, db, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/register", map[string]interface{}{
		"firstName": "Bad",
		"lastName":  "Role",
		"email":     "badrole@example.com",
		"password":  "password123",
		"role":      "admin",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	db.Model(&models.User{}).Where("email = ?", "badrole@example.com").Count(&count)
	assert.Zero(t, count, "no record may be created for an invalid role")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	registerStudent(t, app, "dup@example.com")

	resp, err := app.Test(jsonRequest("POST", "/api/auth/register", map[string]interface{}{
		"firstName": "Second",
		"lastName":  "User",
		"email":     "dup@example.com",
		"password":  "password123",
		"role":      "student",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegisterCreatesRolePayload(t *testing.T) {
	app, db, _ := newTestApp(t)

	_, studentID := registerStudent(t, app, "payload@example.com")

	var user models.User
	require.NoError(t, db.Preload("StudentProfile").First(&user, studentID).Error)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, 20, user.ProfileCompletion)
	require.NotNil(t, user.StudentProfile)
	assert.Equal(t, "Grade 9", user.StudentProfile.GradeLevel)

	// Exactly one role payload is attached.
	assert.Nil(t, user.TeacherProfile)
	assert.Nil(t, user.ParentProfile)
}

func TestLoginWrongPassword(t *testing.T) {
	app, db, _ := newTestApp(t)

	_, studentID := registerStudent(t, app, "login@example.com")

	resp, err := app.Test(jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "login@example.com",
		"password": "wrongpassword",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, studentID).Error)
	assert.Nil(t, user.LastLogin, "failed login must not update lastLogin")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	app, db, _ := newTestApp(t)

	_, studentID := registerStudent(t, app, "inactive@example.com")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", studentID).
		Update("is_active", false).Error)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "inactive@example.com",
		"password": "password123",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginSuccessUpdatesLastLogin(t *testing.T) {
	app, db, _ := newTestApp(t)

	_, studentID := registerStudent(t, app, "ok@example.com")

	resp, err := app.Test(jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "ok@example.com",
		"password": "password123",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	var user models.User
	require.NoError(t, db.First(&user, studentID).Error)
	assert.NotNil(t, user.LastLogin)
}

func TestMe(t *testing.T) {
	app, _, _ := newTestApp(t)

	token, _ := registerTeacher(t, app, "me@example.com")

	resp, err := app.Test(jsonRequest("GET", "/api/auth/me", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	user := result["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "me@example.com", user["email"])
	assert.Equal(t, "teacher", user["role"])
	assert.Equal(t, true, user["isProfileComplete"])
}

func TestMeWithoutToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("GET", "/api/auth/me", nil, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	app, _, _ := newTestApp(t)

	token, _ := registerStudent(t, app, "pw@example.com")

	resp, err := app.Test(jsonRequest("PUT", "/api/auth/password", map[string]interface{}{
		"currentPassword": "wrong",
		"newPassword":     "newpassword123",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PUT", "/api/auth/password", map[string]interface{}{
		"currentPassword": "password123",
		"newPassword":     "newpassword123",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Old password no longer works; new one does.
	resp, err = app.Test(jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "pw@example.com",
		"password": "password123",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "pw@example.com",
		"password": "newpassword123",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
