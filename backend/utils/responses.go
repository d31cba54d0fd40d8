package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Every endpoint answers with the same envelope shape.
type SuccessResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Pagination is 1-indexed: Current is the requested page, Total the page
// count, Results the number of matching rows.
type Pagination struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Results int64 `json:"results"`
}

func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Paginated(c *fiber.Ctx, data interface{}, total int64, page, limit int) error {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return c.JSON(SuccessResponse{
		Success: true,
		Data:    data,
		Pagination: &Pagination{
			Current: page,
			Total:   pages,
			Results: total,
		},
	})
}

func Error(c *fiber.Ctx, status int, message string, details ...interface{}) error {
	response := ErrorResponse{
		Success: false,
		Message: message,
	}
	if len(details) > 0 {
		response.Details = details[0]
	}
	return c.Status(status).JSON(response)
}

func BadRequest(c *fiber.Ctx, message string, details ...interface{}) error {
	return Error(c, fiber.StatusBadRequest, message, details...)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// ServerError exposes the raw error message to the client, matching the
// rest of the API's behavior for uncaught failures.
func ServerError(c *fiber.Ctx, err error) error {
	message := "Server error"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return Error(c, fiber.StatusInternalServerError, message)
}
