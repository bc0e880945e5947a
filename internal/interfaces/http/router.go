package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/vex-identity/internal/application/auth"
	"github.com/jhoicas/vex-identity/internal/application/usecase"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/pkg/jwt"
	"github.com/jhoicas/vex-identity/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	Tokens         *jwt.Issuer
	Log            *logger.Logger
	LoginRateLimit int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api/v1")
	requireAuth := AuthMiddleware(deps.Tokens)

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, log)
	authGroup.Post("/login", LoginRateLimit(deps.LoginRateLimit), authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/me", requireAuth, authHandler.Me)

	// Usuarios (protegido; la administración solo para roles de gestión)
	users := api.Group("/users", requireAuth)
	userHandler := NewUserHandler(deps.UserUC, log)
	managers := RequireRole(entity.RoleAdminStation, entity.RoleCompanyManager)
	users.Put("/me/password", userHandler.ChangePassword)
	users.Post("/", managers, userHandler.Create)
	users.Get("/:id", managers, userHandler.GetByID)
	users.Patch("/:id/status", managers, userHandler.UpdateStatus)
}
