package entity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/internal/domain/service"
	"golang.org/x/text/unicode/norm"
)

// Role es el rol fijo de una cuenta. No cambia después de crearla.
type Role string

// Roles válidos para User.
const (
	RoleAdminStation   Role = "ADMIN_STATION"
	RoleAttendant      Role = "ATTENDANT"
	RoleCompanyManager Role = "COMPANY_MANAGER"
)

// Valid indica si r es uno de los roles conocidos.
func (r Role) Valid() bool {
	switch r {
	case RoleAdminStation, RoleAttendant, RoleCompanyManager:
		return true
	}
	return false
}

// StationScoped indica si el rol pertenece a una estación (y no a una empresa).
func (r Role) StationScoped() bool {
	return r == RoleAdminStation || r == RoleAttendant
}

// Status controla si la cuenta puede iniciar sesión.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid indica si s es un estado conocido.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// NormalizeEmail recorta espacios y pasa a minúsculas; es la clave de login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User representa una cuenta de la plataforma, asociada a una estación o a una empresa según el rol.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Status    Status
	StationID string // obligatorio para ADMIN_STATION y ATTENDANT
	CompanyID string // obligatorio para COMPANY_MANAGER
	Profile   Profile
	CreatedAt time.Time
	UpdatedAt time.Time

	// passwordHash solo lo escribe SetPassword (o RestoreUser al leer de la base).
	passwordHash    string
	passwordChanged bool
}

// NewUserInput campos para crear una cuenta. Password llega en texto plano y se hashea en NewUser.
type NewUserInput struct {
	Name      string
	Email     string
	Password  string
	Role      Role
	Status    Status // vacío = ACTIVE
	StationID string
	CompanyID string
	Profile   Profile
}

// NewUser valida los invariantes del modelo, asigna ID y fechas y hashea la contraseña.
// El resultado está listo para el repositorio; la unicidad del email la garantiza el store.
func NewUser(ctx context.Context, in NewUserInput, hasher service.PasswordHasher) (*User, error) {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	now := time.Now().UTC()
	u := &User{
		ID:        uuid.New().String(),
		Name:      normalizeName(in.Name),
		Email:     NormalizeEmail(in.Email),
		Role:      in.Role,
		Status:    status,
		StationID: strings.TrimSpace(in.StationID),
		CompanyID: strings.TrimSpace(in.CompanyID),
		Profile:   in.Profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := u.SetPassword(ctx, hasher, in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate comprueba los invariantes estructurales: campos obligatorios, formato de email,
// referencia de tenant acorde al rol y perfil acorde al rol.
func (u *User) Validate() error {
	if u.Name == "" {
		return domain.NewValidationError("name", "es obligatorio")
	}
	if u.Email == "" {
		return domain.NewValidationError("email", "es obligatorio")
	}
	if !emailPattern.MatchString(u.Email) {
		return domain.NewValidationError("email", "formato inválido")
	}
	if !u.Role.Valid() {
		return domain.NewValidationError("role", "rol desconocido %q", u.Role)
	}
	if !u.Status.Valid() {
		return domain.NewValidationError("status", "estado desconocido %q", u.Status)
	}
	if err := validateTenant(u.Role, u.StationID, u.CompanyID); err != nil {
		return err
	}
	return validateProfile(u.Role, u.Profile)
}

func validateTenant(role Role, stationID, companyID string) error {
	if role.StationScoped() {
		if stationID == "" {
			return domain.NewValidationError("stationId", "es obligatorio para %s", role)
		}
		if _, err := uuid.Parse(stationID); err != nil {
			return domain.NewValidationError("stationId", "debe ser un UUID")
		}
		if companyID != "" {
			return domain.NewValidationError("companyId", "no aplica para %s", role)
		}
		return nil
	}
	if companyID == "" {
		return domain.NewValidationError("companyId", "es obligatorio para %s", role)
	}
	if _, err := uuid.Parse(companyID); err != nil {
		return domain.NewValidationError("companyId", "debe ser un UUID")
	}
	if stationID != "" {
		return domain.NewValidationError("stationId", "no aplica para %s", role)
	}
	return nil
}

func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// MaxPasswordBytes es el límite de entrada de bcrypt.
const MaxPasswordBytes = 72

// SetPassword es el único camino que cambia el hash. Marca el usuario para que el
// repositorio persista el nuevo hash en el próximo Update.
func (u *User) SetPassword(ctx context.Context, hasher service.PasswordHasher, plaintext string) error {
	if plaintext == "" {
		return domain.NewValidationError("password", "es obligatoria")
	}
	if len(plaintext) > MaxPasswordBytes {
		return domain.NewValidationError("password", "no puede superar %d bytes", MaxPasswordBytes)
	}
	hash, err := hasher.Hash(ctx, plaintext)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	u.passwordChanged = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// PasswordHash devuelve el hash cargado; vacío si la lectura no lo incluyó.
func (u *User) PasswordHash() string { return u.passwordHash }

// PasswordChanged indica si SetPassword corrió desde la última persistencia.
func (u *User) PasswordChanged() bool { return u.passwordChanged }

// MarkPersisted lo llama el repositorio tras escribir el usuario.
func (u *User) MarkPersisted() { u.passwordChanged = false }

// SetStatus activa o desactiva la cuenta. No toca el hash.
func (u *User) SetStatus(s Status) error {
	if !s.Valid() {
		return domain.NewValidationError("status", "estado desconocido %q", s)
	}
	u.Status = s
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Rename cambia el nombre visible.
func (u *User) Rename(name string) error {
	name = normalizeName(name)
	if name == "" {
		return domain.NewValidationError("name", "es obligatorio")
	}
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive indica si la cuenta puede iniciar sesión.
func (u *User) IsActive() bool { return u.Status == StatusActive }

// PublicUser proyección segura del usuario (sin hash).
type PublicUser struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Public devuelve la proyección pública.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserSnapshot es la forma en que el repositorio reconstruye un User leído de la base.
type UserSnapshot struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	StationID    string
	CompanyID    string
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RestoreUser hidrata un User persistido. No valida ni marca el hash como modificado.
func RestoreUser(s UserSnapshot) *User {
	return &User{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		Role:         s.Role,
		Status:       s.Status,
		StationID:    s.StationID,
		CompanyID:    s.CompanyID,
		Profile:      s.Profile,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		passwordHash: s.PasswordHash,
	}
}
