package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/vex-identity/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// beginner lo cumplen *pgxpool.Pool y pgxmock.PgxPoolIface.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db beginner
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db beginner) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción, ejecuta fn con un repositorio atado a la tx y hace Commit,
// o Rollback si fn falla.
func (r *TxRunner) Run(ctx context.Context, fn func(users repository.UserRepository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(NewUserRepository(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
