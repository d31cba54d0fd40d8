package utils

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

type LoggerConfig struct {
	Output *os.File
}

func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	return log.New(cfg.Output, "[EduTwin] ", log.LstdFlags|log.LUTC)
}

// LoggingMiddleware logs method, path, status and latency for every request.
func LoggingMiddleware(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		logger.Printf("%s %s %s %d %s",
			c.IP(),
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start),
		)

		return err
	}
}
