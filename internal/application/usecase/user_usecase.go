package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/internal/domain/repository"
	"github.com/jhoicas/vex-identity/internal/domain/service"
	"github.com/jhoicas/vex-identity/pkg/logger"
)

// Caller identidad de quien invoca, tomada de los claims del token.
type Caller struct {
	UserID    string
	Role      entity.Role
	StationID string
	CompanyID string
}

// UserUseCase administración de cuentas acotada al tenant de quien llama.
type UserUseCase struct {
	repo   repository.UserRepository
	hasher service.PasswordHasher
	log    *logger.Logger
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia y el hasher.
func NewUserUseCase(repo repository.UserRepository, hasher service.PasswordHasher, log *logger.Logger) *UserUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UserUseCase{repo: repo, hasher: hasher, log: log.Component("users")}
}

// Create da de alta un usuario en el tenant de quien llama. Un ADMIN_STATION crea cuentas
// de su estación; un COMPANY_MANAGER, gestores de su empresa.
func (uc *UserUseCase) Create(ctx context.Context, caller Caller, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	role := entity.Role(in.Role)
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "rol desconocido %q", in.Role)
	}

	stationID, companyID := strings.TrimSpace(in.StationID), strings.TrimSpace(in.CompanyID)
	switch caller.Role {
	case entity.RoleAdminStation:
		if !role.StationScoped() {
			return nil, domain.ErrTenantMismatch
		}
		if stationID == "" {
			stationID = caller.StationID
		}
		if stationID != caller.StationID {
			return nil, domain.ErrTenantMismatch
		}
	case entity.RoleCompanyManager:
		if role.StationScoped() {
			return nil, domain.ErrTenantMismatch
		}
		if companyID == "" {
			companyID = caller.CompanyID
		}
		if companyID != caller.CompanyID {
			return nil, domain.ErrTenantMismatch
		}
	default:
		return nil, domain.ErrForbidden
	}

	profile, err := entity.UnmarshalProfile(role, in.Profile)
	if err != nil {
		return nil, err
	}
	user, err := entity.NewUser(ctx, entity.NewUserInput{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		Role:      role,
		Status:    entity.Status(in.Status),
		StationID: stationID,
		CompanyID: companyID,
		Profile:   profile,
	}, uc.hasher)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("event", "user_created").
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Str("created_by", caller.UserID).
		Msg("usuario creado")
	return toUserResponse(user)
}

// GetByID obtiene un usuario del mismo tenant.
func (uc *UserUseCase) GetByID(ctx context.Context, caller Caller, id string) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user)
}

// SetStatus activa o desactiva una cuenta del mismo tenant. No toca el hash.
func (uc *UserUseCase) SetStatus(ctx context.Context, caller Caller, id string, in dto.UpdateStatusRequest) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetStatus(entity.Status(in.Status)); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("event", "user_status_changed").
		Str("user_id", user.ID).
		Str("status", string(user.Status)).
		Str("changed_by", caller.UserID).
		Msg("estado de usuario actualizado")
	return toUserResponse(user)
}

// ChangePassword cambia la contraseña propia tras verificar la actual. Es el único
// caso de uso que vuelve a hashear.
func (uc *UserUseCase) ChangePassword(ctx context.Context, caller Caller, in dto.ChangePasswordRequest) error {
	if in.CurrentPassword == "" {
		return domain.NewValidationError("currentPassword", "es obligatoria")
	}
	current, err := uc.repo.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrNotFound
	}
	user, err := uc.repo.FindByEmail(ctx, current.Email, true)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrNotFound
	}

	ok, err := uc.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash())
	if err != nil {
		return fmt.Errorf("verificar contraseña: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	if err := user.SetPassword(ctx, uc.hasher, in.NewPassword); err != nil {
		return err
	}
	if err := uc.repo.Update(ctx, user); err != nil {
		return err
	}

	uc.log.Info().Str("event", "password_changed").Str("user_id", user.ID).Msg("contraseña actualizada")
	return nil
}

func (uc *UserUseCase) load(ctx context.Context, caller Caller, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if !sameTenant(caller, user) {
		return nil, domain.ErrTenantMismatch
	}
	return user, nil
}

func sameTenant(caller Caller, u *entity.User) bool {
	if u.Role.StationScoped() {
		return caller.StationID != "" && caller.StationID == u.StationID
	}
	return caller.CompanyID != "" && caller.CompanyID == u.CompanyID
}

func toUserResponse(u *entity.User) (*dto.UserResponse, error) {
	profile, err := entity.MarshalProfile(u.Profile)
	if err != nil {
		return nil, fmt.Errorf("serializar perfil: %w", err)
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		StationID: u.StationID,
		CompanyID: u.CompanyID,
		Profile:   json.RawMessage(profile),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}
