// Package service define puertos de lógica de dominio sin estado que no pertenecen a una entidad.
package service

import "context"

// PasswordHasher abstrae el algoritmo de hash de contraseñas.
type PasswordHasher interface {
	// Hash genera un hash con salt a partir del texto plano.
	Hash(ctx context.Context, plaintext string) (string, error)

	// Verify compara el texto plano con el hash. Un desajuste es (false, nil), nunca un error.
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}
