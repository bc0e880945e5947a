package repository

import (
	"context"

	"github.com/jhoicas/vex-identity/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// La implementación debe garantizar la unicidad del email de forma atómica.
type UserRepository interface {
	// Create persiste un usuario ya validado. Devuelve domain.ErrDuplicateEmail si el email existe.
	Create(ctx context.Context, user *entity.User) error
	// GetByID devuelve (nil, nil) si no existe. Nunca incluye el hash.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindByEmail busca por email normalizado; withPassword incluye el hash (solo para verificar credenciales).
	FindByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error)
	// Update persiste cambios de campos; escribe el hash solo si user.PasswordChanged().
	Update(ctx context.Context, user *entity.User) error
	// DeleteAll vacía la colección. Lo usa únicamente el seeder.
	DeleteAll(ctx context.Context) error
}

// TxRunner ejecuta fn con un UserRepository atado a una transacción: si fn devuelve error
// no queda nada persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(users UserRepository) error) error
}
