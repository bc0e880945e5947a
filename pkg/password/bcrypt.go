// Package password implementa el hash de contraseñas con bcrypt sobre un pool acotado de workers.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost equivale a las 12 rondas de salt usadas históricamente por la plataforma.
const DefaultCost = 12

// ErrEmptyPassword se devuelve al intentar hashear una contraseña vacía.
var ErrEmptyPassword = errors.New("la contraseña no puede estar vacía")

// BcryptHasher hashea y verifica contraseñas. bcrypt es CPU-bound, así que cada operación
// reserva un slot del semáforo: como máximo `workers` hashes corren a la vez y el resto de
// goroutines del servidor no se quedan sin CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher construye el hasher. workers <= 0 usa runtime.NumCPU().
func NewBcryptHasher(cost, workers int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("costo bcrypt fuera de rango: %d", cost)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}, nil
}

// Cost devuelve el factor de costo configurado.
func (h *BcryptHasher) Cost() int { return h.cost }

// Hash genera un hash con salt aleatorio: dos llamadas con la misma entrada dan salidas distintas.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("esperando worker de hash: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify compara en tiempo constante. Un hash que no coincide o está mal formado devuelve
// false sin error; solo falla si ctx termina antes de conseguir un worker.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("esperando worker de hash: %w", err)
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil, nil
}

// DummyHash devuelve un hash bcrypt bien formado con el costo dado que no corresponde a
// ninguna contraseña. Verificar contra él cuesta lo mismo que contra un hash real.
func DummyHash(cost int) string {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	// 22 caracteres de salt + 31 de digest en el alfabeto de bcrypt.
	return fmt.Sprintf("$2a$%02d$%s%s", cost, strings.Repeat("C", 22), strings.Repeat("u", 31))
}
