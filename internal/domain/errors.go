package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicateEmail     = errors.New("el email ya está registrado")
	ErrMissingCredentials = errors.New("email y senha son requeridos")
	ErrInvalidCredentials = errors.New("email o contraseña incorrectos")
	ErrAccountInactive    = errors.New("la cuenta de usuario está inactiva")
	ErrForbidden          = errors.New("acceso denegado")
	ErrTenantMismatch     = errors.New("el usuario pertenece a otro tenant")
)

// ValidationError señala el campo que rompe una regla del modelo. errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un error de validación para field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidationField extrae el campo de un ValidationError envuelto en err ("" si no hay).
func ValidationField(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
