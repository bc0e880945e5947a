package entity

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/vex-identity/internal/domain"
	"github.com/shopspring/decimal"
)

// Profile es la unión etiquetada de atributos por rol. La etiqueta es User.Role; el método
// no exportado cierra la unión a las tres variantes de este paquete.
type Profile interface {
	Role() Role
	validate() error
}

// StationPermissions permisos de un administrador de estación.
type StationPermissions struct {
	IsOwner          bool `json:"isOwner"`
	ManageAdmins     bool `json:"manageAdmins"`
	ManageAttendants bool `json:"manageAttendants"`
	ManageContracts  bool `json:"manageContracts"`
	ViewFinance      bool `json:"viewFinance"`
}

// AdminStationProfile perfil de ADMIN_STATION.
type AdminStationProfile struct {
	JobTitle    string             `json:"jobTitle"`
	StaffCode   string             `json:"staffCode,omitempty"`
	Permissions StationPermissions `json:"permissions"`
}

func (AdminStationProfile) Role() Role { return RoleAdminStation }

func (p AdminStationProfile) validate() error {
	if strings.TrimSpace(p.JobTitle) == "" {
		return domain.NewValidationError("profile.jobTitle", "es obligatorio")
	}
	return nil
}

// AttendantProfile perfil de ATTENDANT (frentista).
type AttendantProfile struct {
	TaxID    string          `json:"taxId"`
	HireDate time.Time       `json:"hireDate"`
	Salary   decimal.Decimal `json:"salary"`
	Shift    string          `json:"shift,omitempty"`
}

func (AttendantProfile) Role() Role { return RoleAttendant }

func (p AttendantProfile) validate() error {
	if strings.TrimSpace(p.TaxID) == "" {
		return domain.NewValidationError("profile.taxId", "es obligatorio")
	}
	if p.HireDate.IsZero() {
		return domain.NewValidationError("profile.hireDate", "es obligatoria")
	}
	if p.Salary.IsNegative() {
		return domain.NewValidationError("profile.salary", "no puede ser negativo")
	}
	return nil
}

// CompanyPermissions permisos de un gestor de empresa cliente.
type CompanyPermissions struct {
	IsOwner        bool `json:"isOwner"`
	ManageManagers bool `json:"manageManagers"`
	ManageVehicles bool `json:"manageVehicles"`
	ManageDrivers  bool `json:"manageDrivers"`
	ViewFinance    bool `json:"viewFinance"`
}

// CompanyManagerProfile perfil de COMPANY_MANAGER.
type CompanyManagerProfile struct {
	JobTitle    string             `json:"jobTitle"`
	Department  string             `json:"department,omitempty"`
	Permissions CompanyPermissions `json:"permissions"`
}

func (CompanyManagerProfile) Role() Role { return RoleCompanyManager }

func (p CompanyManagerProfile) validate() error {
	if strings.TrimSpace(p.JobTitle) == "" {
		return domain.NewValidationError("profile.jobTitle", "es obligatorio")
	}
	return nil
}

// validateProfile exige que la variante corresponda al rol y que sus campos obligatorios estén.
func validateProfile(role Role, p Profile) error {
	if p == nil {
		return domain.NewValidationError("profile", "es obligatorio")
	}
	if p.Role() != role {
		return domain.NewValidationError("profile", "el perfil %s no corresponde al rol %s", p.Role(), role)
	}
	return p.validate()
}

// MarshalProfile serializa la variante (JSONB en base de datos).
func MarshalProfile(p Profile) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalProfile decodifica data en la variante dictada por role. Rechaza campos
// desconocidos, así que campos de otro rol no pueden colarse.
func UnmarshalProfile(role Role, data []byte) (Profile, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, domain.NewValidationError("profile", "es obligatorio")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var (
		p   Profile
		err error
	)
	switch role {
	case RoleAdminStation:
		var v AdminStationProfile
		err = dec.Decode(&v)
		p = v
	case RoleAttendant:
		var v AttendantProfile
		err = dec.Decode(&v)
		p = v
	case RoleCompanyManager:
		var v CompanyManagerProfile
		err = dec.Decode(&v)
		p = v
	default:
		return nil, domain.NewValidationError("role", "rol desconocido %q", role)
	}
	if err != nil {
		return nil, domain.NewValidationError("profile", "formato inválido para %s: %v", role, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, domain.NewValidationError("profile", "datos sobrantes tras el objeto")
	}
	return p, nil
}
