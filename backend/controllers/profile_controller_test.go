package controllers_test

import (
	"strings"
	"testing"

	"edutwin/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileIncludesRolePayload(t *testing.T) {
	app, _, _ := newTestApp(t)

	token, _ := registerStudent(t, app, "p-get@example.com")

	resp, err := app.Test(jsonRequest("GET", "/api/profile", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	user := result["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "student", user["role"])
	assert.NotNil(t, user["studentProfile"])
	assert.NotContains(t, user, "teacherProfile")
	assert.NotContains(t, user, "passwordHash")
}

func TestUpdateProfileIgnoresProtectedFields(t *testing.T) {
	app, db, _ := newTestApp(t)

	token, userID := registerStudent(t, app, "p-update@example.com")

	// role, email and password are not part of the request shape; sending
	// them changes nothing.
	resp, err := app.Test(jsonRequest("PUT", "/api/profile", map[string]interface{}{
		"firstName": "Renamed",
		"role":      "teacher",
		"email":     "stolen@example.com",
		"password":  "hacked",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, "Renamed", user.FirstName)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "p-update@example.com", user.Email)
}

func TestUpdateEmailChecksPasswordAndUniqueness(t *testing.T) {
	app, db, _ := newTestApp(t)

	token, userID := registerStudent(t, app, "p-email@example.com")
	registerStudent(t, app, "taken@example.com")

	resp, err := app.Test(jsonRequest("PUT", "/api/profile/email", map[string]interface{}{
		"email":    "fresh@example.com",
		"password": "wrong",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PUT", "/api/profile/email", map[string]interface{}{
		"email":    "taken@example.com",
		"password": "password123",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PUT", "/api/profile/email", map[string]interface{}{
		"email":    "fresh@example.com",
		"password": "password123",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, "fresh@example.com", user.Email)
	assert.False(t, user.IsEmailVerified, "a new address starts unverified")
}

func TestDeleteAccountFreesEmail(t *testing.T) {
	app, db, _ := newTestApp(t)

	token, userID := registerStudent(t, app, "p-delete@example.com")

	resp, err := app.Test(jsonRequest("DELETE", "/api/profile", map[string]interface{}{
		"password": "password123",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.False(t, user.IsActive)
	assert.True(t, strings.HasPrefix(user.Email, "deleted-"))
	assert.True(t, strings.HasSuffix(user.Email, "@p-delete@example.com"))

	// The deactivated account cannot log in.
	resp, err = app.Test(jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "p-delete@example.com",
		"password": "password123",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// The original address is free to register again.
	registerStudent(t, app, "p-delete@example.com")
}

func TestUploadAvatar(t *testing.T) {
	app, db, _ := newTestApp(t)

	token, userID := registerStudent(t, app, "p-avatar@example.com")

	resp, err := app.Test(jsonRequest("POST", "/api/profile/avatar", map[string]interface{}{
		"avatarUrl": "https://cdn.example.com/a.png",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, "https://cdn.example.com/a.png", user.Avatar)
}
