package entity_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/jhoicas/vex-identity/internal/domain/entity"
)

const (
	testStationID = "6f1c1e0a-3a1b-4c1e-9a61-2f0f4f7b9a01"
	testCompanyID = "0d9b4f5e-7f0a-4a9e-8d4b-7d1b2c3e4f50"
)

// fakeHasher hash reversible y barato; suficiente para probar el modelo sin bcrypt.
type fakeHasher struct{ calls int }

func (h *fakeHasher) Hash(_ context.Context, p string) (string, error) {
	h.calls++
	return "hashed:" + p, nil
}

func (h *fakeHasher) Verify(_ context.Context, p, hash string) (bool, error) {
	return hash == "hashed:"+p, nil
}

func adminInput() entity.NewUserInput {
	return entity.NewUserInput{
		Name:      "  Mariana Gestora  ",
		Email:     "  Admin.Posto@VEX.com ",
		Password:  "senha123",
		Role:      entity.RoleAdminStation,
		StationID: testStationID,
		Profile: entity.AdminStationProfile{
			JobTitle:    "Proprietária",
			StaffCode:   "ADM-001",
			Permissions: entity.StationPermissions{IsOwner: true, ManageAdmins: true},
		},
	}
}

func attendantInput() entity.NewUserInput {
	return entity.NewUserInput{
		Name:      "Carlos Silva",
		Email:     "frentista.teste@vex.com",
		Password:  "senha123",
		Role:      entity.RoleAttendant,
		StationID: testStationID,
		Profile: entity.AttendantProfile{
			TaxID:    "111.222.333-44",
			HireDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			Salary:   decimal.RequireFromString("2350.00"),
			Shift:    "Diurno",
		},
	}
}

func managerInput() entity.NewUserInput {
	return entity.NewUserInput{
		Name:      "Ana Clara",
		Email:     "gestor.cliente@empresa.com",
		Password:  "senha123",
		Role:      entity.RoleCompanyManager,
		CompanyID: testCompanyID,
		Profile:   entity.CompanyManagerProfile{JobTitle: "Diretora de Logística", Department: "Operações"},
	}
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "debe ser un error de validación")
	assert.Equal(t, field, domain.ValidationField(err))
}

func TestNewUser_NormalizaYHashea(t *testing.T) {
	h := &fakeHasher{}
	u, err := entity.NewUser(context.Background(), adminInput(), h)
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Mariana Gestora", u.Name)
	assert.Equal(t, "admin.posto@vex.com", u.Email)
	assert.Equal(t, entity.StatusActive, u.Status, "estado por defecto ACTIVE")
	assert.Equal(t, "hashed:senha123", u.PasswordHash())
	assert.NotEqual(t, "senha123", u.PasswordHash())
	assert.True(t, u.PasswordChanged())
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, 1, h.calls)
}

func TestNewUser_TodosLosRoles(t *testing.T) {
	for _, in := range []entity.NewUserInput{adminInput(), attendantInput(), managerInput()} {
		_, err := entity.NewUser(context.Background(), in, &fakeHasher{})
		assert.NoError(t, err, in.Role)
	}
}

func TestNewUser_TenantSegunRol(t *testing.T) {
	in := adminInput()
	in.StationID = ""
	_, err := entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "stationId")

	in = attendantInput()
	in.StationID = ""
	_, err = entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "stationId")

	in = managerInput()
	in.CompanyID = ""
	_, err = entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "companyId")
}

func TestNewUser_TenantCruzadoRechazado(t *testing.T) {
	in := adminInput()
	in.CompanyID = testCompanyID
	_, err := entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "companyId")

	in = managerInput()
	in.StationID = testStationID
	_, err = entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "stationId")

	in = managerInput()
	in.CompanyID = "no-es-uuid"
	_, err = entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "companyId")
}

func TestNewUser_PerfilDeOtroRol(t *testing.T) {
	in := adminInput()
	in.Profile = entity.CompanyManagerProfile{JobTitle: "Gerente"}
	_, err := entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "profile")

	in = attendantInput()
	in.Profile = nil
	_, err = entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "profile")
}

func TestNewUser_CamposObligatorios(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*entity.NewUserInput)
	}{
		{"name", func(in *entity.NewUserInput) { in.Name = "   " }},
		{"email", func(in *entity.NewUserInput) { in.Email = "" }},
		{"email", func(in *entity.NewUserInput) { in.Email = "sin-arroba.com" }},
		{"role", func(in *entity.NewUserInput) { in.Role = "ROOT" }},
		{"status", func(in *entity.NewUserInput) { in.Status = "SUSPENDED" }},
		{"password", func(in *entity.NewUserInput) { in.Password = "" }},
		{"profile.jobTitle", func(in *entity.NewUserInput) {
			in.Profile = entity.AdminStationProfile{StaffCode: "ADM-9"}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			h := &fakeHasher{}
			in := adminInput()
			tc.mutate(&in)
			_, err := entity.NewUser(context.Background(), in, h)
			requireField(t, err, tc.field)
			assert.Zero(t, h.calls, "no se hashea si la validación falla")
		})
	}
}

func TestNewUser_PerfilFrentista(t *testing.T) {
	in := attendantInput()
	p := in.Profile.(entity.AttendantProfile)
	p.TaxID = ""
	in.Profile = p
	_, err := entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "profile.taxId")

	p = attendantInput().Profile.(entity.AttendantProfile)
	p.Salary = decimal.NewFromInt(-1)
	in.Profile = p
	_, err = entity.NewUser(context.Background(), in, &fakeHasher{})
	requireField(t, err, "profile.salary")
}

func TestSetPassword_UnicoCaminoQueRehashea(t *testing.T) {
	h := &fakeHasher{}
	u, err := entity.NewUser(context.Background(), adminInput(), h)
	require.NoError(t, err)
	u.MarkPersisted()

	require.NoError(t, u.SetStatus(entity.StatusInactive))
	require.NoError(t, u.Rename("Mariana"))
	assert.False(t, u.PasswordChanged(), "cambios ajenos a la contraseña no rehashean")
	assert.Equal(t, 1, h.calls)

	require.NoError(t, u.SetPassword(context.Background(), h, "nova-senha"))
	assert.True(t, u.PasswordChanged())
	assert.Equal(t, "hashed:nova-senha", u.PasswordHash())
	assert.Equal(t, 2, h.calls)

	requireField(t, u.SetPassword(context.Background(), h, ""), "password")
	requireField(t, u.SetStatus("BLOCKED"), "status")
	requireField(t, u.Rename(" "), "name")
}

func TestSetPassword_RechazaMasDe72Bytes(t *testing.T) {
	h := &fakeHasher{}
	in := attendantInput()
	in.Password = strings.Repeat("a", entity.MaxPasswordBytes+1)
	_, err := entity.NewUser(context.Background(), in, h)
	requireField(t, err, "password")
	assert.Zero(t, h.calls, "no se llega al hasher")

	in.Password = strings.Repeat("a", entity.MaxPasswordBytes)
	u, err := entity.NewUser(context.Background(), in, h)
	require.NoError(t, err)

	// 37 runas de dos bytes: 74 bytes aunque sean menos de 72 caracteres.
	requireField(t, u.SetPassword(context.Background(), h, strings.Repeat("ç", 37)), "password")
}

func TestRestoreUser_NoMarcaHash(t *testing.T) {
	u := entity.RestoreUser(entity.UserSnapshot{
		ID: "x", Email: "a@b.com", PasswordHash: "$2a$12$abc", Role: entity.RoleAttendant, Status: entity.StatusActive,
	})
	assert.Equal(t, "$2a$12$abc", u.PasswordHash())
	assert.False(t, u.PasswordChanged())
	assert.True(t, u.IsActive())
}

func TestPublic_SinHash(t *testing.T) {
	u, err := entity.NewUser(context.Background(), managerInput(), &fakeHasher{})
	require.NoError(t, err)
	p := u.Public()
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "Ana Clara", p.Name)
	assert.Equal(t, entity.RoleCompanyManager, p.Role)
}

func TestProfileJSON_IdaYVuelta(t *testing.T) {
	in := attendantInput()
	raw, err := entity.MarshalProfile(in.Profile)
	require.NoError(t, err)

	p, err := entity.UnmarshalProfile(entity.RoleAttendant, raw)
	require.NoError(t, err)
	got := p.(entity.AttendantProfile)
	assert.Equal(t, "111.222.333-44", got.TaxID)
	assert.True(t, decimal.RequireFromString("2350").Equal(got.Salary))
}

func TestUnmarshalProfile_RechazaCamposDeOtroRol(t *testing.T) {
	raw := []byte(`{"jobTitle":"Gerente","taxId":"111"}`)
	_, err := entity.UnmarshalProfile(entity.RoleAdminStation, raw)
	requireField(t, err, "profile")

	_, err = entity.UnmarshalProfile(entity.RoleCompanyManager, []byte("null"))
	requireField(t, err, "profile")

	_, err = entity.UnmarshalProfile("ROOT", []byte(`{}`))
	requireField(t, err, "role")
}

func TestUnmarshalProfile_RechazaDatosSobrantes(t *testing.T) {
	for _, raw := range []string{
		`{"jobTitle":"Gerente"}{"foo":1}`,
		`{"jobTitle":"Gerente"} 1`,
		`{"jobTitle":"Gerente"} garbage`,
	} {
		_, err := entity.UnmarshalProfile(entity.RoleCompanyManager, []byte(raw))
		requireField(t, err, "profile")
	}

	_, err := entity.UnmarshalProfile(entity.RoleCompanyManager, []byte("{\"jobTitle\":\"Gerente\"}\n  "))
	assert.NoError(t, err, "espacio final permitido")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "admin.posto@vex.com", entity.NormalizeEmail("  ADMIN.posto@Vex.COM\t"))
	assert.Equal(t, "", entity.NormalizeEmail(strings.Repeat(" ", 3)))
}
