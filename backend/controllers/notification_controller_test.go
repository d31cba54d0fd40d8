package controllers_test

import (
	"fmt"
	"testing"
	"time"

	"edutwin/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedNotification(t *testing.T, db *gorm.DB, userID uint, title string, expires *time.Time) uint {
	t.Helper()

	notification := models.Notification{
		UserID:         userID,
		Title:          title,
		Message:        "Something happened",
		Type:           "assignment",
		ExpirationDate: expires,
	}
	require.NoError(t, db.Create(&notification).Error)
	return notification.ID
}

func TestGetNotificationsFiltersExpired(t *testing.T) {
	app, db, _ := newTestApp(t)

	token, userID := registerStudent(t, app, "n-list@example.com")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	seedNotification(t, db, userID, "Expired", &past)
	seedNotification(t, db, userID, "Current", &future)
	seedNotification(t, db, userID, "Evergreen", nil)

	resp, err := app.Test(jsonRequest("GET", "/api/notifications", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	notifications := result["data"].(map[string]interface{})["notifications"].([]interface{})
	require.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.NotEqual(t, "Expired", n.(map[string]interface{})["Title"])
	}
}

func TestMarkReadIsOwnerScopedAndIdempotent(t *testing.T) {
	app, db, _ := newTestApp(t)

	ownerToken, ownerID := registerStudent(t, app, "n-owner@example.com")
	otherToken, _ := registerStudent(t, app, "n-other@example.com")
	notificationID := seedNotification(t, db, ownerID, "Graded", nil)

	resp, err := app.Test(jsonRequest("PATCH",
		fmt.Sprintf("/api/notifications/%d/read", notificationID), nil, otherToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PATCH",
		fmt.Sprintf("/api/notifications/%d/read", notificationID), nil, ownerToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var notification models.Notification
	require.NoError(t, db.First(&notification, notificationID).Error)
	require.True(t, notification.IsRead)
	require.NotNil(t, notification.ReadAt)
	firstReadAt := *notification.ReadAt

	// Marking again keeps the original read timestamp.
	resp, err = app.Test(jsonRequest("PATCH",
		fmt.Sprintf("/api/notifications/%d/read", notificationID), nil, ownerToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&notification, notificationID).Error)
	assert.True(t, notification.ReadAt.Equal(firstReadAt))
}

func TestMarkAllRead(t *testing.T) {
	app, db, _ := newTestApp(t)

	token, userID := registerStudent(t, app, "n-bulk@example.com")
	seedNotification(t, db, userID, "One", nil)
	seedNotification(t, db, userID, "Two", nil)

	resp, err := app.Test(jsonRequest("PATCH", "/api/notifications/read-all", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, float64(2), result["data"].(map[string]interface{})["updated"])

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)
	assert.Zero(t, unread)
}
