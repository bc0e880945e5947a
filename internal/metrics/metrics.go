package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resultados posibles de un intento de login.
const (
	OutcomeSuccess            = "success"
	OutcomeMissingCredentials = "missing_credentials"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInactive           = "inactive"
	OutcomeError              = "error"
)

var (
	loginAttempts     *prometheus.CounterVec
	loginDuration     prometheus.Histogram
	httpRequestsTotal *prometheus.CounterVec
	registerOnce      sync.Once
)

// Register inicializa las métricas en el registry por defecto. Es idempotente.
func Register() {
	registerOnce.Do(func() {
		loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vex",
			Name:      "login_attempts_total",
			Help:      "Intentos de login por resultado.",
		}, []string{"outcome"})
		loginDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vex",
			Name:      "login_duration_seconds",
			Help:      "Duración del login, incluida la verificación bcrypt.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		})
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vex",
			Name:      "http_requests_total",
			Help:      "Total de peticiones HTTP procesadas.",
		}, []string{"method", "path", "status"})
	})
}

// ObserveLogin registra un intento de login con su resultado y duración.
func ObserveLogin(outcome string, elapsed time.Duration) {
	if loginAttempts == nil {
		return
	}
	loginAttempts.WithLabelValues(outcome).Inc()
	loginDuration.Observe(elapsed.Seconds())
}

// LoginAttempts devuelve el contador (nil si Register no se llamó). Útil en tests.
func LoginAttempts() *prometheus.CounterVec {
	return loginAttempts
}

// IncRequest incrementa http_requests_total con las etiquetas dadas.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
