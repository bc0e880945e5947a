package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/vex-identity/internal/application/auth"
	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/pkg/logger"
)

// AuthHandler maneja login, logout y la consulta de la sesión actual.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, senha"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Description  No invalida el token: sigue siendo válido hasta su expiración. El cliente debe descartarlo.
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.MessageResponse
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tok, _ := bearerToken(c)
	_ = h.uc.Logout(c.UserContext(), tok)
	return c.JSON(dto.MessageResponse{Message: "sesión cerrada; descarte el token"})
}

// Me godoc
// @Summary      Sesión actual
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.MeResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := GetClaims(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido"})
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time.UTC()
	}
	return c.JSON(dto.MeResponse{
		ID:        claims.UserID,
		Role:      claims.Role,
		StationID: claims.StationID,
		CompanyID: claims.CompanyID,
		ExpiresAt: exp,
	})
}
