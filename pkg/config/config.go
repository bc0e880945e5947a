package config

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
// Se lee una sola vez al arrancar el proceso y no se modifica después.
type Config struct {
	App  AppConfig
	DB   DBConfig
	JWT  JWTConfig
	Hash HashConfig
	HTTP HTTPConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, production
	Name     string
	LogLevel string
}

// IsProduction indica si el perfil activo es producción.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string // ya resuelto según el perfil (DATABASE_URL, DATABASE_URL_DEV o DATABASE_URL_PROD)
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Migrate     bool // aplicar migraciones embebidas al arrancar
}

// ConnectionString devuelve el DSN a usar: DatabaseURL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de los tokens de sesión.
type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
	Issuer    string
}

// HashConfig configuración del hash de contraseñas.
type HashConfig struct {
	Cost    int // factor de costo bcrypt
	Workers int // hashes simultáneos como máximo
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host           string
	Port           int
	LoginRateLimit int // intentos de login por IP y minuto
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DATABASE_URL_DEV, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	env := getString(v, "APP_ENV", "development")

	expiresIn, err := tokenLifetime(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:      env,
			Name:     getString(v, "APP_NAME", "vex-identity"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: databaseURL(v, env),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "vex"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			Migrate:     getBool(v, "DB_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:    getString(v, "JWT_SECRET", ""),
			ExpiresIn: expiresIn,
			Issuer:    getString(v, "JWT_ISSUER", "vex-identity"),
		},
		Hash: HashConfig{
			Cost:    getInt(v, "HASH_COST", 12),
			Workers: getInt(v, "HASH_WORKERS", runtime.NumCPU()),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 3000),
			LoginRateLimit: getInt(v, "LOGIN_RATE_LIMIT", 20),
		},
	}
	return cfg, nil
}

// Validate revisa los valores sin los que el servicio no puede arrancar.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET es obligatorio"))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, errors.New("la duración del token debe ser positiva"))
	}
	if c.Hash.Cost < 4 || c.Hash.Cost > 31 {
		errs = append(errs, fmt.Errorf("HASH_COST fuera de rango: %d", c.Hash.Cost))
	}
	if c.Hash.Workers < 1 {
		errs = append(errs, fmt.Errorf("HASH_WORKERS debe ser al menos 1: %d", c.Hash.Workers))
	}
	return errors.Join(errs...)
}

// databaseURL elige la URL del store según el perfil; DATABASE_URL gana sobre ambas.
func databaseURL(v *viper.Viper, env string) string {
	if u := getString(v, "DATABASE_URL", ""); u != "" {
		return u
	}
	if env == "production" {
		return getString(v, "DATABASE_URL_PROD", "")
	}
	return getString(v, "DATABASE_URL_DEV", "")
}

// tokenLifetime acepta JWT_EXPIRES_IN ("90m", "12h", "1d") o, si falta, JWT_EXPIRATION_MINUTES.
func tokenLifetime(v *viper.Viper) (time.Duration, error) {
	raw := strings.TrimSpace(getString(v, "JWT_EXPIRES_IN", ""))
	if raw == "" {
		return time.Duration(getInt(v, "JWT_EXPIRATION_MINUTES", 60)) * time.Minute, nil
	}
	return ParseLifetime(raw)
}

// ParseLifetime interpreta una duración Go o un número de días con sufijo "d".
func ParseLifetime(raw string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("JWT_EXPIRES_IN inválido %q: %w", raw, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("JWT_EXPIRES_IN inválido %q: %w", raw, err)
	}
	return d, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
