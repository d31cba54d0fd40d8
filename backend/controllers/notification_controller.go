package controllers

import (
	"errors"
	"strconv"
	"time"

	"edutwin/backend/config"
	"edutwin/backend/models"
	"edutwin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewNotificationController(db *gorm.DB, cfg *config.Config) *NotificationController {
	return &NotificationController{DB: db, Cfg: cfg}
}

// GetNotifications lists the caller's notifications, newest first. Expired
// rows are filtered out rather than deleted.
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, nc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	page, limit := pageParams(c, 10)

	query := nc.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where("expiration_date IS NULL OR expiration_date > ?", time.Now())

	if unread := c.Query("unread"); unread == "true" {
		query = query.Where("is_read = ?", false)
	}
	if notificationType := c.Query("type"); notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ServerError(c, err)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return utils.ServerError(c, err)
	}

	return utils.Paginated(c, fiber.Map{"notifications": notifications}, total, page, limit)
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, nc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	notificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid notification ID")
	}

	var notification models.Notification
	if err := nc.DB.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Notification not found")
		}
		return utils.ServerError(c, err)
	}

	if notification.UserID != userID {
		return utils.Forbidden(c, "Not authorized to access this notification")
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := nc.DB.Save(&notification).Error; err != nil {
			return utils.ServerError(c, err)
		}
	}

	return utils.Success(c, fiber.StatusOK, "Notification marked as read", fiber.Map{
		"notification": notification,
	})
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, nc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		return utils.ServerError(c, result.Error)
	}

	return utils.Success(c, fiber.StatusOK, "All notifications marked as read", fiber.Map{
		"updated": result.RowsAffected,
	})
}
