package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/internal/application/usecase"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/pkg/jwt"
)

// Locals keys con la identidad del token en Fiber.
const (
	LocalUserID    = "user_id"
	LocalRole      = "role"
	LocalStationID = "station_id"
	LocalCompanyID = "company_id"
	LocalClaims    = "claims"
)

// AuthMiddleware valida el Bearer Token y deja los claims en c.Locals.
// Un token vencido responde TOKEN_EXPIRED; cualquier otro rechazo, INVALID_TOKEN.
func AuthMiddleware(tokens *jwt.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: err.Error()})
		}
		claims, err := tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "TOKEN_EXPIRED", Message: "token expirado"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido"})
		}
		c.Locals(LocalClaims, claims)
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalStationID, claims.StationID)
		c.Locals(LocalCompanyID, claims.CompanyID)
		return c.Next()
	}
}

var errNoBearer = errors.New("se requiere el header Authorization: Bearer <token>")

func bearerToken(c *fiber.Ctx) (string, error) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errNoBearer
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errNoBearer
	}
	return tok, nil
}

// RequireRole permite pasar solo a los roles indicados. Va después de AuthMiddleware.
func RequireRole(roles ...entity.Role) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if _, ok := allowed[role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para este recurso"})
		}
		return c.Next()
	}
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetStationID devuelve la estación del token ("" para gestores de empresa).
func GetStationID(c *fiber.Ctx) string { return localString(c, LocalStationID) }

// GetCompanyID devuelve la empresa del token ("" para roles de estación).
func GetCompanyID(c *fiber.Ctx) string { return localString(c, LocalCompanyID) }

// GetClaims devuelve los claims completos o nil.
func GetClaims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(LocalClaims).(*jwt.Claims)
	return claims
}

func callerFrom(c *fiber.Ctx) usecase.Caller {
	return usecase.Caller{
		UserID:    GetUserID(c),
		Role:      entity.Role(GetRole(c)),
		StationID: GetStationID(c),
		CompanyID: GetCompanyID(c),
	}
}
