package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/vex-identity/internal/application/auth"
	"github.com/jhoicas/vex-identity/internal/application/dto"
	"github.com/jhoicas/vex-identity/internal/application/usecase"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/vex-identity/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/vex-identity/pkg/jwt"
	"github.com/jhoicas/vex-identity/pkg/logger"
	"github.com/jhoicas/vex-identity/pkg/password"
)

type server struct {
	app    *fiber.App
	repo   *memory.UserRepository
	tokens *pkgjwt.Issuer
	admin  *entity.User
}

func newServer(t *testing.T, loginRateLimit int) *server {
	t.Helper()
	ctx := context.Background()
	hasher, err := password.NewBcryptHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	tokens := newIssuer(t)
	repo := memory.NewUserRepository()

	admin, err := entity.NewUser(ctx, entity.NewUserInput{
		Name: "Mariana Gestora", Email: "admin.posto@vex.com", Password: "senha123",
		Role: entity.RoleAdminStation, StationID: testStationID,
		Profile: entity.AdminStationProfile{JobTitle: "Proprietária"},
	}, hasher)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, admin))

	inactive, err := entity.NewUser(ctx, entity.NewUserInput{
		Name: "Pedro Inativo", Email: "inativo@vex.com", Password: "senha123",
		Role: entity.RoleAttendant, Status: entity.StatusInactive, StationID: testStationID,
		Profile: entity.AttendantProfile{TaxID: "999", HireDate: time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)},
	}, hasher)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inactive))

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         auth.NewAuthUseCase(repo, hasher, tokens, auth.Config{TokenTTL: time.Hour, DummyHash: password.DummyHash(bcrypt.MinCost)}, nil),
		UserUC:         usecase.NewUserUseCase(repo, hasher, nil),
		Tokens:         tokens,
		LoginRateLimit: loginRateLimit,
	})
	return &server{app: app, repo: repo, tokens: tokens, admin: admin}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (s *server) login(t *testing.T, email, senha string) string {
	t.Helper()
	resp, raw := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: email, Senha: senha})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Token
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Login / logout / me
// ──────────────────────────────────────────────────────────────────────────────

func TestLoginHandler_Exitoso(t *testing.T) {
	s := newServer(t, 0)
	resp, raw := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "admin.posto@vex.com", "senha": "senha123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["token"])
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, s.admin.ID, user["id"])
	assert.Equal(t, "Mariana Gestora", user["nome"])
	assert.Equal(t, "admin.posto@vex.com", user["email"])
	assert.Equal(t, "ADMIN_STATION", user["role"])
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$")
}

func TestLoginHandler_Errores(t *testing.T) {
	s := newServer(t, 0)
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"sin senha", map[string]string{"email": "admin.posto@vex.com"}, http.StatusBadRequest, "MISSING_CREDENTIALS"},
		{"cuerpo vacío", nil, http.StatusBadRequest, "MISSING_CREDENTIALS"},
		{"contraseña incorrecta", dto.LoginRequest{Email: "admin.posto@vex.com", Senha: "errada"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"email desconocido", dto.LoginRequest{Email: "nadie@vex.com", Senha: "senha123"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"cuenta inactiva", dto.LoginRequest{Email: "inativo@vex.com", Senha: "senha123"}, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := s.do(t, http.MethodPost, "/api/v1/auth/login", "", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, raw).Code)
		})
	}
}

func TestLoginHandler_JSONInvalido(t *testing.T) {
	s := newServer(t, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginHandler_RateLimit(t *testing.T) {
	s := newServer(t, 2)
	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "admin.posto@vex.com", Senha: "x"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, raw := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "admin.posto@vex.com", Senha: "x"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, raw).Code)
}

func TestLogoutYMe(t *testing.T) {
	s := newServer(t, 0)
	token := s.login(t, "admin.posto@vex.com", "senha123")

	resp, raw := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var me dto.MeResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, s.admin.ID, me.ID)
	assert.Equal(t, "ADMIN_STATION", me.Role)
	assert.Equal(t, testStationID, me.StationID)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Logout no revoca: el token sigue sirviendo hasta su exp.
	resp, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", decodeError(t, raw).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Administración de usuarios
// ──────────────────────────────────────────────────────────────────────────────

func attendantBody(email string) map[string]any {
	return map[string]any{
		"name":     "Carlos Silva",
		"email":    email,
		"password": "senha123",
		"role":     "ATTENDANT",
		"profile":  map[string]any{"taxId": "111.222.333-44", "hireDate": "2023-01-15T00:00:00Z", "salary": "2350.00"},
	}
}

func TestUsers_CrearConsultarYDesactivar(t *testing.T) {
	s := newServer(t, 0)
	token := s.login(t, "admin.posto@vex.com", "senha123")

	resp, raw := s.do(t, http.MethodPost, "/api/v1/users", token, attendantBody("frentista.teste@vex.com"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, testStationID, created.StationID)
	assert.NotContains(t, string(raw), "senha123")

	resp, raw = s.do(t, http.MethodGet, "/api/v1/users/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = s.do(t, http.MethodPatch, "/api/v1/users/"+created.ID+"/status", token, dto.UpdateStatusRequest{Status: "INACTIVE"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "frentista.teste@vex.com", Senha: "senha123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_INACTIVE", decodeError(t, raw).Code)
}

func TestUsers_ErroresDeAlta(t *testing.T) {
	s := newServer(t, 0)
	token := s.login(t, "admin.posto@vex.com", "senha123")

	resp, raw := s.do(t, http.MethodPost, "/api/v1/users", token, attendantBody("admin.posto@vex.com"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", decodeError(t, raw).Code)

	body := attendantBody("nuevo@vex.com")
	body["profile"] = map[string]any{"hireDate": "2023-01-15T00:00:00Z"}
	resp, raw = s.do(t, http.MethodPost, "/api/v1/users", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "profile.taxId", e.Field)

	body = attendantBody("nuevo@vex.com")
	body["stationId"] = "9a2d7c31-5b4e-4f6a-8c9d-1e2f3a4b5c6d"
	resp, raw = s.do(t, http.MethodPost, "/api/v1/users", token, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "TENANT_MISMATCH", decodeError(t, raw).Code)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/users/3b8f2b4e-1c2d-4e5f-8a9b-0c1d2e3f4a5b", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsers_FrentistaNoAdministra(t *testing.T) {
	s := newServer(t, 0)
	admin := s.login(t, "admin.posto@vex.com", "senha123")
	resp, _ := s.do(t, http.MethodPost, "/api/v1/users", admin, attendantBody("frentista.teste@vex.com"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token := s.login(t, "frentista.teste@vex.com", "senha123")
	resp, raw := s.do(t, http.MethodPost, "/api/v1/users", token, attendantBody("otro@vex.com"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, raw).Code)
}

func TestUsers_CambiarContrasenaPropia(t *testing.T) {
	s := newServer(t, 0)
	token := s.login(t, "admin.posto@vex.com", "senha123")

	resp, raw := s.do(t, http.MethodPut, "/api/v1/users/me/password", token,
		dto.ChangePasswordRequest{CurrentPassword: "errada", NewPassword: "nova-senha"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, raw).Code)

	resp, raw = s.do(t, http.MethodPut, "/api/v1/users/me/password", token,
		dto.ChangePasswordRequest{CurrentPassword: "senha123", NewPassword: "nova-senha"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	s.login(t, "admin.posto@vex.com", "nova-senha")
	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "admin.posto@vex.com", Senha: "senha123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsers_ContrasenaDeMasDe72BytesEsValidacion(t *testing.T) {
	s := newServer(t, 0)
	token := s.login(t, "admin.posto@vex.com", "senha123")

	body := attendantBody("frentista.teste@vex.com")
	body["password"] = strings.Repeat("x", 73)
	resp, raw := s.do(t, http.MethodPost, "/api/v1/users", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
	e := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "password", e.Field)

	resp, raw = s.do(t, http.MethodPut, "/api/v1/users/me/password", token,
		dto.ChangePasswordRequest{CurrentPassword: "senha123", NewPassword: strings.Repeat("x", 80)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
	e = decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "password", e.Field)

	// La contraseña anterior sigue vigente.
	s.login(t, "admin.posto@vex.com", "senha123")
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores internos
// ──────────────────────────────────────────────────────────────────────────────

// brokenRepo simula un store caído en la búsqueda por email.
type brokenRepo struct{ *memory.UserRepository }

func (brokenRepo) FindByEmail(context.Context, string, bool) (*entity.User, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestLoginHandler_ErrorInternoNoSeFiltra(t *testing.T) {
	hasher, err := password.NewBcryptHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	tokens := newIssuer(t)
	repo := brokenRepo{memory.NewUserRepository()}
	logs := &bytes.Buffer{}

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(repo, hasher, tokens, auth.Config{TokenTTL: time.Hour}, nil),
		UserUC: usecase.NewUserUseCase(repo, hasher, nil),
		Tokens: tokens,
		Log:    logger.NewWithWriter(logs, "info"),
	})
	s := &server{app: app, tokens: tokens}

	resp, raw := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "admin.posto@vex.com", Senha: "senha123"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "INTERNAL", e.Code)
	assert.Equal(t, "error interno del servidor", e.Message)
	assert.NotContains(t, string(raw), "connection refused")
	assert.NotContains(t, string(raw), "10.0.0.5")

	assert.Contains(t, logs.String(), "connection refused", "el detalle queda en el log")
}
