package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más la identidad y el alcance de tenant del usuario.
// Role y los IDs de tenant viajan en el token para que el middleware RBAC decida sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"id"`
	Role      string `json:"role"`
	StationID string `json:"stationId,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
}

// TokenErrorKind distingue las causas de rechazo de un token.
type TokenErrorKind int

const (
	TokenInvalid TokenErrorKind = iota + 1
	TokenExpired
)

// Errores centinela para usar con errors.Is sobre un *TokenError.
var (
	ErrTokenInvalid = errors.New("token inválido")
	ErrTokenExpired = errors.New("token expirado")
)

// TokenError es el único tipo de error que devuelve Verify.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Kind == TokenExpired {
		return ErrTokenExpired.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrTokenInvalid, e.Err)
	}
	return ErrTokenInvalid.Error()
}

// Is permite errors.Is(err, ErrTokenExpired) y errors.Is(err, ErrTokenInvalid) sin solaparse.
func (e *TokenError) Is(target error) bool {
	switch target {
	case ErrTokenExpired:
		return e.Kind == TokenExpired
	case ErrTokenInvalid:
		return e.Kind == TokenInvalid
	}
	return false
}

func (e *TokenError) Unwrap() error { return e.Err }

// Option configura un Issuer.
type Option func(*Issuer)

// WithClock reemplaza el reloj (tests de expiración).
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer firma y verifica tokens de sesión HS256. Es inmutable tras construirse y seguro
// para uso concurrente.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer construye el emisor. El secreto es configuración del proceso, no estado de la petición.
func NewIssuer(secret, issuer string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	i := &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue genera un token firmado con los claims de identidad, iat y exp = iat + ttl.
func (i *Issuer) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.UserID == "" {
		return "", fmt.Errorf("jwt: id de usuario vacío")
	}
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: firmar token: %w", err)
	}
	return signed, nil
}

// Verify valida firma, emisor y expiración. No consulta ninguna lista de revocación:
// un token bien formado y vigente siempre se acepta.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		// Una firma inválida nunca se reporta como expirada: el parser solo valida
		// claims temporales después de verificar la firma.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &TokenError{Kind: TokenExpired, Err: err}
		}
		return nil, &TokenError{Kind: TokenInvalid, Err: err}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, &TokenError{Kind: TokenInvalid, Err: errors.New("claims inválidos")}
	}
	return claims, nil
}
