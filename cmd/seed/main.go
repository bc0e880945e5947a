// seed pobla la base con las cuentas de demostración: un admin de estación, un frentista
// y un gestor de empresa, todos con la contraseña por defecto.
//
// Uso: go run ./cmd/seed
// Borra TODOS los usuarios antes de crear los nuevos.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/vex-identity/internal/domain/entity"
	"github.com/jhoicas/vex-identity/internal/domain/repository"
	"github.com/jhoicas/vex-identity/internal/domain/service"
	"github.com/jhoicas/vex-identity/internal/infrastructure/postgres"
	"github.com/jhoicas/vex-identity/pkg/config"
	"github.com/jhoicas/vex-identity/pkg/logger"
	"github.com/jhoicas/vex-identity/pkg/password"
)

const defaultPassword = "senha123"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
		return err
	}

	hasher, err := password.NewBcryptHasher(cfg.Hash.Cost, cfg.Hash.Workers)
	if err != nil {
		return err
	}
	users, err := seedUsers(ctx, postgres.NewTxRunner(pool), hasher)
	if err != nil {
		return err
	}
	for _, u := range users {
		log.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("usuario de prueba creado")
	}
	log.Info().Str("password", defaultPassword).Msg("todas las cuentas usan la contraseña por defecto")
	return nil
}

// seedUsers borra los usuarios existentes y crea las tres cuentas de demostración en una
// sola transacción. Pasan por entity.NewUser, así que la contraseña se guarda hasheada.
func seedUsers(ctx context.Context, tx repository.TxRunner, hasher service.PasswordHasher) ([]*entity.User, error) {
	stationID := uuid.New().String()
	companyID := uuid.New().String()
	inputs := []entity.NewUserInput{
		{
			Name:      "Mariana Gestora (Admin)",
			Email:     "admin.posto@vex.com",
			Password:  defaultPassword,
			Role:      entity.RoleAdminStation,
			StationID: stationID,
			Profile: entity.AdminStationProfile{
				JobTitle:  "Proprietária",
				StaffCode: "ADM-001",
				Permissions: entity.StationPermissions{
					IsOwner:          true,
					ManageAdmins:     true,
					ManageAttendants: true,
					ManageContracts:  true,
					ViewFinance:      true,
				},
			},
		},
		{
			Name:      "Carlos Silva (Frentista)",
			Email:     "frentista.teste@vex.com",
			Password:  defaultPassword,
			Role:      entity.RoleAttendant,
			StationID: stationID,
			Profile: entity.AttendantProfile{
				TaxID:    "111.222.333-44",
				HireDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
				Salary:   decimal.RequireFromString("2350.00"),
				Shift:    "Diurno",
			},
		},
		{
			Name:      "Ana Clara (Cliente)",
			Email:     "gestor.cliente@empresa.com",
			Password:  defaultPassword,
			Role:      entity.RoleCompanyManager,
			CompanyID: companyID,
			Profile: entity.CompanyManagerProfile{
				JobTitle:   "Diretora de Logística",
				Department: "Operações",
				Permissions: entity.CompanyPermissions{
					IsOwner:        true,
					ManageManagers: true,
					ManageVehicles: true,
					ManageDrivers:  true,
					ViewFinance:    true,
				},
			},
		},
	}

	// Los hashes se calculan fuera de la transacción.
	prepared := make([]*entity.User, 0, len(inputs))
	for _, in := range inputs {
		u, err := entity.NewUser(ctx, in, hasher)
		if err != nil {
			return nil, fmt.Errorf("preparar %s: %w", in.Email, err)
		}
		prepared = append(prepared, u)
	}

	err := tx.Run(ctx, func(users repository.UserRepository) error {
		if err := users.DeleteAll(ctx); err != nil {
			return err
		}
		for _, u := range prepared {
			if err := users.Create(ctx, u); err != nil {
				return fmt.Errorf("crear %s: %w", u.Email, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}
