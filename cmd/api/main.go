package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/vex-identity/internal/application/auth"
	"github.com/jhoicas/vex-identity/internal/application/usecase"
	"github.com/jhoicas/vex-identity/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/vex-identity/internal/interfaces/http"
	"github.com/jhoicas/vex-identity/internal/metrics"
	"github.com/jhoicas/vex-identity/pkg/config"
	"github.com/jhoicas/vex-identity/pkg/jwt"
	"github.com/jhoicas/vex-identity/pkg/logger"
	"github.com/jhoicas/vex-identity/pkg/password"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	hasher, err := password.NewBcryptHasher(cfg.Hash.Cost, cfg.Hash.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("hasher de contraseñas")
	}
	tokens, err := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("emisor de tokens")
	}

	metrics.Register()
	userRepo := postgres.NewUserRepository(pool)
	authUC := auth.NewAuthUseCase(userRepo, hasher, tokens, auth.Config{
		TokenTTL:  cfg.JWT.ExpiresIn,
		DummyHash: password.DummyHash(cfg.Hash.Cost),
	}, log)
	userUC := usecase.NewUserUseCase(userRepo, hasher, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "VEX Identity API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado; /docs deshabilitado")
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API VEX en ejecución")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         userUC,
		Tokens:         tokens,
		Log:            log.Component("http"),
		LoginRateLimit: cfg.HTTP.LoginRateLimit,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
