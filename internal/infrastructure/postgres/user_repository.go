package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// Columnas de la proyección por defecto: el hash queda fuera salvo petición explícita.
const (
	userColumns         = `id::text, name, email, role, status, station_id::text, company_id::text, profile, created_at, updated_at`
	userColumnsWithHash = userColumns + `, password_hash`
)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	db DBTX
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

// Create persiste un nuevo usuario. La constraint users_email_key hace atómica la unicidad:
// de dos altas concurrentes con el mismo email solo una tiene éxito.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.PasswordHash() == "" {
		return domain.NewValidationError("password", "el usuario no tiene hash")
	}
	profile, err := entity.MarshalProfile(user.Profile)
	if err != nil {
		return fmt.Errorf("serializar perfil: %w", err)
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, status, station_id, company_id, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash(), string(user.Role), string(user.Status),
		nullable(user.StationID), nullable(user.CompanyID), profile, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.MarkPersisted()
	return nil
}

// GetByID obtiene un usuario por ID, sin hash.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// FindByEmail obtiene un usuario por email normalizado. Con withPassword incluye el hash.
func (r *UserRepo) FindByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error) {
	cols := userColumns
	if withPassword {
		cols = userColumnsWithHash
	}
	query := `SELECT ` + cols + ` FROM users WHERE email = $1 LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, query, entity.NormalizeEmail(email)), withPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Update persiste nombre, estado y perfil. El hash solo se escribe si cambió la contraseña;
// rol, email y tenant no se actualizan por este camino.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	profile, err := entity.MarshalProfile(user.Profile)
	if err != nil {
		return fmt.Errorf("serializar perfil: %w", err)
	}

	var (
		query string
		args  []any
	)
	if user.PasswordChanged() {
		query = `
			UPDATE users SET name = $2, status = $3, profile = $4, updated_at = $5, password_hash = $6
			WHERE id = $1`
		args = []any{user.ID, user.Name, string(user.Status), profile, user.UpdatedAt, user.PasswordHash()}
	} else {
		query = `
			UPDATE users SET name = $2, status = $3, profile = $4, updated_at = $5
			WHERE id = $1`
		args = []any{user.ID, user.Name, string(user.Status), profile, user.UpdatedAt}
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	user.MarkPersisted()
	return nil
}

// DeleteAll elimina todos los usuarios (solo seeder).
func (r *UserRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row, withPassword bool) (*entity.User, error) {
	var (
		s                    entity.UserSnapshot
		role, status         string
		stationID, companyID *string
		profile              []byte
		createdAt, updatedAt time.Time
	)
	dest := []any{&s.ID, &s.Name, &s.Email, &role, &status, &stationID, &companyID, &profile, &createdAt, &updatedAt}
	if withPassword {
		dest = append(dest, &s.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	s.Role = entity.Role(role)
	s.Status = entity.Status(status)
	s.StationID = deref(stationID)
	s.CompanyID = deref(companyID)
	s.CreatedAt = createdAt
	s.UpdatedAt = updatedAt

	p, err := entity.UnmarshalProfile(s.Role, profile)
	if err != nil {
		return nil, fmt.Errorf("perfil almacenado inválido para %s: %v", s.ID, err)
	}
	s.Profile = p
	return entity.RestoreUser(s), nil
}
