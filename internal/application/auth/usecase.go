package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/internal/domain/repository"
	"github.com/jhoicas/vex-identity/internal/domain/service"
	"github.com/jhoicas/vex-identity/internal/metrics"
	"github.com/jhoicas/vex-identity/pkg/jwt"
	"github.com/jhoicas/vex-identity/pkg/logger"
	"github.com/jhoicas/vex-identity/pkg/password"
)

// Config parámetros del login.
type Config struct {
	TokenTTL time.Duration
	// DummyHash se verifica cuando el email no existe; debe tener el mismo costo que los hashes reales.
	DummyHash string
}

// AuthUseCase casos de uso de autenticación: login y logout.
type AuthUseCase struct {
	users     repository.UserRepository
	hasher    service.PasswordHasher
	tokens    *jwt.Issuer
	ttl       time.Duration
	dummyHash string
	log       *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(users repository.UserRepository, hasher service.PasswordHasher, tokens *jwt.Issuer, cfg Config, log *logger.Logger) *AuthUseCase {
	if cfg.DummyHash == "" {
		cfg.DummyHash = password.DummyHash(password.DefaultCost)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		ttl:       cfg.TokenTTL,
		dummyHash: cfg.DummyHash,
		log:       log.Component("auth"),
	}
}

// Login verifica email/senha y emite un token de sesión.
//
// Email desconocido y contraseña incorrecta devuelven el mismo ErrInvalidCredentials y cuestan
// lo mismo: sin usuario se verifica contra dummyHash. El estado de la cuenta se revisa
// después de la contraseña, así ErrAccountInactive solo lo ve quien conoce la contraseña.
// Login no modifica nada persistido.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	start := time.Now()
	email := entity.NormalizeEmail(in.Email)

	user, out, err := uc.login(ctx, email, in.Senha)
	outcome := loginOutcome(err)
	metrics.ObserveLogin(outcome, time.Since(start))

	ev := uc.log.Info()
	if outcome == metrics.OutcomeError {
		ev = uc.log.Error().Err(err)
	} else if err != nil {
		ev = uc.log.Warn()
	}
	ev = ev.Str("event", "login").Str("outcome", outcome).Str("email", email)
	if user != nil {
		ev = ev.Str("user_id", user.ID).Str("role", string(user.Role))
	}
	ev.Msg("intento de login")

	return out, err
}

func (uc *AuthUseCase) login(ctx context.Context, email, plaintext string) (*entity.User, *dto.LoginResponse, error) {
	if email == "" || plaintext == "" {
		return nil, nil, domain.ErrMissingCredentials
	}

	user, err := uc.users.FindByEmail(ctx, email, true)
	if err != nil {
		return nil, nil, fmt.Errorf("buscar usuario: %w", err)
	}

	hash := uc.dummyHash
	if user != nil {
		hash = user.PasswordHash()
	}
	ok, err := uc.hasher.Verify(ctx, plaintext, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("verificar contraseña: %w", err)
	}
	if user == nil || !ok {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return user, nil, domain.ErrAccountInactive
	}

	token, err := uc.tokens.Issue(jwt.Claims{
		UserID:    user.ID,
		Role:      string(user.Role),
		StationID: user.StationID,
		CompanyID: user.CompanyID,
	}, uc.ttl)
	if err != nil {
		return user, nil, fmt.Errorf("emitir token: %w", err)
	}

	pub := user.Public()
	return user, &dto.LoginResponse{
		Status: "success",
		Token:  token,
		Data: dto.LoginData{User: dto.LoginUser{
			ID:    pub.ID,
			Nome:  pub.Name,
			Email: pub.Email,
			Role:  string(pub.Role),
		}},
	}, nil
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrMissingCredentials):
		return metrics.OutcomeMissingCredentials
	case errors.Is(err, domain.ErrInvalidCredentials):
		return metrics.OutcomeInvalidCredentials
	case errors.Is(err, domain.ErrAccountInactive):
		return metrics.OutcomeInactive
	default:
		return metrics.OutcomeError
	}
}

// Logout no invalida nada: los tokens viven hasta su exp. Si llega un token válido se usa
// solo para registrar quién cerró sesión. Nunca falla.
func (uc *AuthUseCase) Logout(_ context.Context, token string) error {
	ev := uc.log.Info().Str("event", "logout")
	if token != "" {
		if claims, err := uc.tokens.Verify(token); err == nil {
			ev = ev.Str("user_id", claims.UserID).Str("role", claims.Role)
		}
	}
	ev.Msg("logout")
	return nil
}
