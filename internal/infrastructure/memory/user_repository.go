// Package memory contiene un UserRepository en memoria para tests y demos locales.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository guarda copias de los usuarios indexadas por ID. La unicidad del email se
// comprueba y se reserva bajo el mismo lock, igual que la constraint UNIQUE en PostgreSQL.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]entity.UserSnapshot
	byEmail map[string]string
}

// NewUserRepository crea un repositorio vacío.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]entity.UserSnapshot),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *entity.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.PasswordHash() == "" {
		return domain.NewValidationError("password", "el usuario no tiene hash")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return domain.ErrDuplicateEmail
	}
	r.byID[user.ID] = snapshot(user)
	r.byEmail[user.Email] = user.ID
	user.MarkPersisted()
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	s.PasswordHash = ""
	return entity.RestoreUser(s), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string, withPassword bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[entity.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	s := r.byID[id]
	if !withPassword {
		s.PasswordHash = ""
	}
	return entity.RestoreUser(s), nil
}

// Update replica la semántica del adaptador SQL: email, rol y tenant no cambian y el hash
// solo se reemplaza si la contraseña cambió.
func (r *UserRepository) Update(_ context.Context, user *entity.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Name = user.Name
	s.Status = user.Status
	s.Profile = user.Profile
	s.UpdatedAt = user.UpdatedAt
	if user.PasswordChanged() {
		s.PasswordHash = user.PasswordHash()
	}
	r.byID[user.ID] = s
	user.MarkPersisted()
	return nil
}

func (r *UserRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]entity.UserSnapshot)
	r.byEmail = make(map[string]string)
	return nil
}

// Len devuelve cuántos usuarios hay guardados.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func snapshot(u *entity.User) entity.UserSnapshot {
	return entity.UserSnapshot{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash(),
		Role:         u.Role,
		Status:       u.Status,
		StationID:    u.StationID,
		CompanyID:    u.CompanyID,
		Profile:      u.Profile,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// TxRunner ejecuta fn sobre el repositorio en memoria. No hay rollback: pensado para tests.
type TxRunner struct {
	Repo *UserRepository
}

func (r TxRunner) Run(_ context.Context, fn func(users repository.UserRepository) error) error {
	return fn(r.Repo)
}
