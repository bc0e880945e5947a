package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/internal/metrics"
	"github.com/jhoicas/vex-identity/pkg/logger"
)

// RequestLogger registra cada petición y la cuenta en http_requests_total por ruta.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		metrics.IncRequest(c.Method(), route, status)

		log.Info().
			Str("method", c.Method()).
			Str("path", route).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request")
		return err
	}
}

// LoginRateLimit limita los intentos de login por IP a perMinute por minuto; perMinute <= 0 lo desactiva.
func LoginRateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "demasiados intentos de login, intente más tarde",
			})
		},
	})
}
