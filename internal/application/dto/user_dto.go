package dto

import (
	"encoding/json"
	"time"
)

// LoginRequest entrada del login. La clave de la contraseña es "senha", como la consumen los clientes.
type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// LoginUser proyección pública del usuario autenticado.
type LoginUser struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginData envoltorio de data en la respuesta de login.
type LoginData struct {
	User LoginUser `json:"user"`
}

// LoginResponse salida del login: token de sesión más el usuario.
type LoginResponse struct {
	Status string    `json:"status"`
	Token  string    `json:"token"`
	Data   LoginData `json:"data"`
}

// MeResponse claims del token actual.
type MeResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	StationID string    `json:"stationId,omitempty"`
	CompanyID string    `json:"companyId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateUserRequest alta de un usuario. Profile se decodifica según el rol.
// StationID/CompanyID vacíos se completan con el tenant de quien crea.
type CreateUserRequest struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	Role      string          `json:"role"`
	Status    string          `json:"status,omitempty"`
	StationID string          `json:"stationId,omitempty"`
	CompanyID string          `json:"companyId,omitempty"`
	Profile   json.RawMessage `json:"profile"`
}

// UserResponse salida de un usuario (sin hash).
type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Status    string          `json:"status"`
	StationID string          `json:"stationId,omitempty"`
	CompanyID string          `json:"companyId,omitempty"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// UpdateStatusRequest activa o desactiva una cuenta.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ChangePasswordRequest cambio de la contraseña propia.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
