// Package auth implements the session validation contract consumed by the
// pipeline. Token issuance lives elsewhere; only validation happens here.
package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Validation failure reasons
const (
	ReasonExpired          = "expired"
	ReasonRevoked          = "revoked"
	ReasonInvalidSignature = "invalid_signature"
	ReasonNotFound         = "not_found"
	ReasonMalformed        = "malformed"
)

// Result is the outcome of a token validation
type Result struct {
	Valid  bool
	Reason string
}

// Error is the fail-fast signal raised when the pipeline is entered with an
// invalid session.
type Error struct {
	Status int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Reason)
}

// NewError builds the tagged auth error for a failed validation
func NewError(reason string) *Error {
	return &Error{Status: http.StatusUnauthorized, Reason: reason}
}

// Validator is the session validation contract
type Validator interface {
	// Validate checks the raw bearer token
	Validate(token string) Result
}

// Config contains token validation settings
type Config struct {
	// Enabled turns validation on; when false every token passes
	Enabled bool `yaml:"enabled" default:"false"`
	// Secret is the HMAC signing secret
	Secret string `yaml:"secret"`
	// Issuer, when set, must match the token's iss claim
	Issuer string `yaml:"issuer"`
	// RevokedIDs lists revoked jti claims
	RevokedIDs []string `yaml:"revokedIds"`
}

// ErrSecretRequired is returned when validation is enabled without a secret
var ErrSecretRequired = errors.New("auth secret is required when auth is enabled")

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Enabled && c.Secret == "" {
		return ErrSecretRequired
	}

	return nil
}

// jwtValidator validates HMAC-signed tokens
type jwtValidator struct {
	secret  []byte
	issuer  string
	revoked map[string]struct{}
}

// NewValidator creates a validator from the configuration. When validation
// is disabled a pass-through validator is returned.
func NewValidator(cfg *Config) (Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		return passValidator{}, nil
	}

	revoked := make(map[string]struct{}, len(cfg.RevokedIDs))
	for _, id := range cfg.RevokedIDs {
		revoked[id] = struct{}{}
	}

	return &jwtValidator{
		secret:  []byte(cfg.Secret),
		issuer:  cfg.Issuer,
		revoked: revoked,
	}, nil
}

// Validate checks the raw bearer token
func (v *jwtValidator) Validate(token string) Result {
	if token == "" {
		return Result{Valid: false, Reason: ReasonNotFound}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Result{Valid: false, Reason: ReasonExpired}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Result{Valid: false, Reason: ReasonInvalidSignature}
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Result{Valid: false, Reason: ReasonMalformed}
		default:
			return Result{Valid: false, Reason: ReasonMalformed}
		}
	}

	if !parsed.Valid {
		return Result{Valid: false, Reason: ReasonMalformed}
	}

	if claims.ID != "" {
		if _, ok := v.revoked[claims.ID]; ok {
			return Result{Valid: false, Reason: ReasonRevoked}
		}
	}

	return Result{Valid: true}
}

// passValidator accepts every token. Installed when auth is disabled.
type passValidator struct{}

func (passValidator) Validate(_ string) Result {
	return Result{Valid: true}
}

// Ensure implementations satisfy the interface
var (
	_ Validator = (*jwtValidator)(nil)
	_ Validator = passValidator{}
)
