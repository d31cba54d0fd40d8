package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"edutwin/backend/config"
	"edutwin/backend/routes"
	"edutwin/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "testsecret",
		JWTExpiry:  time.Hour,
		ServerPort: "8080",
		BcryptCost: bcrypt.MinCost,
	}
}

// newTestApp wires the full route table against a fresh in-memory database.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, utils.Migrate(db))

	cfg := testConfig()
	app := fiber.New()
	routes.SetupRoutes(app, db, cfg)

	return app, db, cfg
}

func jsonRequest(method, path string, body interface{}, token string) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// registerUser registers through the API and returns the token and user id.
func registerUser(t *testing.T, app *fiber.App, role, email string, extra map[string]interface{}) (string, uint) {
	t.Helper()

	payload := map[string]interface{}{
		"firstName": "Test",
		"lastName":  "User",
		"email":     email,
		"password":  "password123",
		"role":      role,
	}
	for k, v := range extra {
		payload[k] = v
	}

	resp, err := app.Test(jsonRequest("POST", "/api/auth/register", payload, ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	result := decodeBody(t, resp)
	data := result["data"].(map[string]interface{})
	token := data["token"].(string)
	user := data["user"].(map[string]interface{})
	return token, uint(user["id"].(float64))
}

func registerTeacher(t *testing.T, app *fiber.App, email string) (string, uint) {
	return registerUser(t, app, "teacher", email, map[string]interface{}{
		"subjects": []string{"Mathematics"},
		"school":   "Springfield High",
	})
}

func registerStudent(t *testing.T, app *fiber.App, email string) (string, uint) {
	return registerUser(t, app, "student", email, map[string]interface{}{
		"gradeLevel":  "Grade 9",
		"dateOfBirth": "2010-04-01",
		"school":      "Springfield High",
	})
}

func createClass(t *testing.T, app *fiber.App, token string, capacity int) uint {
	t.Helper()

	resp, err := app.Test(jsonRequest("POST", "/api/classes", map[string]interface{}{
		"name":         "Algebra I",
		"subject":      "Mathematics",
		"gradeLevel":   "Grade 9",
		"academicYear": "2025-2026",
		"capacity":     capacity,
	}, token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	result := decodeBody(t, resp)
	class := result["data"].(map[string]interface{})["class"].(map[string]interface{})
	return uint(class["ID"].(float64))
}

func addStudent(t *testing.T, app *fiber.App, token string, classID, studentID uint) *http.Response {
	t.Helper()

	resp, err := app.Test(jsonRequest("POST",
		fmt.Sprintf("/api/classes/%d/students", classID),
		map[string]interface{}{"studentId": studentID}, token), -1)
	require.NoError(t, err)
	return resp
}
