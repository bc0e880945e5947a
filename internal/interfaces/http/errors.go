package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/pkg/jwt"
	"github.com/jhoicas/vex-identity/pkg/logger"
)

type httpError struct {
	status  int
	code    string
	message string
}

// mapError traduce errores de dominio a status y código HTTP. Lo desconocido es INTERNAL.
func mapError(err error) httpError {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return httpError{fiber.StatusBadRequest, "VALIDATION", ve.Error()}
	case errors.Is(err, domain.ErrMissingCredentials):
		return httpError{fiber.StatusBadRequest, "MISSING_CREDENTIALS", "email y senha son requeridos"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return httpError{fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "email o contraseña incorrectos"}
	case errors.Is(err, domain.ErrAccountInactive):
		return httpError{fiber.StatusForbidden, "ACCOUNT_INACTIVE", "la cuenta de usuario está inactiva"}
	case errors.Is(err, jwt.ErrTokenExpired):
		return httpError{fiber.StatusUnauthorized, "TOKEN_EXPIRED", "token expirado"}
	case errors.Is(err, jwt.ErrTokenInvalid):
		return httpError{fiber.StatusUnauthorized, "INVALID_TOKEN", "token inválido"}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return httpError{fiber.StatusConflict, "EMAIL_EXISTS", "el email ya está registrado"}
	case errors.Is(err, domain.ErrTenantMismatch):
		return httpError{fiber.StatusForbidden, "TENANT_MISMATCH", "el recurso pertenece a otro tenant"}
	case errors.Is(err, domain.ErrForbidden):
		return httpError{fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"}
	case errors.Is(err, domain.ErrNotFound):
		return httpError{fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"}
	default:
		return httpError{fiber.StatusInternalServerError, "INTERNAL", "error interno del servidor"}
	}
}

// writeError responde con dto.ErrorResponse. El detalle de un error interno solo va al log.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	he := mapError(err)
	if he.status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(he.status).JSON(dto.ErrorResponse{
		Code:    he.code,
		Message: he.message,
		Field:   domain.ValidationField(err),
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
