package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func newEnabledValidator(t *testing.T, cfg *Config) Validator {
	t.Helper()

	v, err := NewValidator(cfg)
	require.NoError(t, err)

	return v
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Enabled: true, Secret: "s"}).Validate())
	assert.ErrorIs(t, (&Config{Enabled: true}).Validate(), ErrSecretRequired)
}

func TestValidator_Disabled(t *testing.T) {
	v, err := NewValidator(&Config{Enabled: false})
	require.NoError(t, err)

	assert.True(t, v.Validate("").Valid)
	assert.True(t, v.Validate("anything").Valid)
}

func TestValidator_ValidToken(t *testing.T) {
	v := newEnabledValidator(t, &Config{Enabled: true, Secret: testSecret})

	token := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	res := v.Validate(token)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)
}

func TestValidator_FailureReasons(t *testing.T) {
	v := newEnabledValidator(t, &Config{
		Enabled:    true,
		Secret:     testSecret,
		RevokedIDs: []string{"revoked-session"},
	})

	tests := []struct {
		name       string
		token      string
		wantReason string
	}{
		{
			name:       "missing token",
			token:      "",
			wantReason: ReasonNotFound,
		},
		{
			name:       "malformed token",
			token:      "not-a-jwt",
			wantReason: ReasonMalformed,
		},
		{
			name: "expired token",
			token: signToken(t, testSecret, jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			}),
			wantReason: ReasonExpired,
		},
		{
			name: "wrong signature",
			token: signToken(t, "other-secret", jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantReason: ReasonInvalidSignature,
		},
		{
			name: "revoked session",
			token: signToken(t, testSecret, jwt.RegisteredClaims{
				ID:        "revoked-session",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantReason: ReasonRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.token)
			assert.False(t, res.Valid)
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestValidator_IssuerCheck(t *testing.T) {
	v := newEnabledValidator(t, &Config{Enabled: true, Secret: testSecret, Issuer: "sheetpipe"})

	good := signToken(t, testSecret, jwt.RegisteredClaims{
		Issuer:    "sheetpipe",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	assert.True(t, v.Validate(good).Valid)

	bad := signToken(t, testSecret, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	assert.False(t, v.Validate(bad).Valid)
}

func TestNewError(t *testing.T) {
	err := NewError(ReasonExpired)
	assert.Equal(t, 401, err.Status)
	assert.Equal(t, ReasonExpired, err.Reason)
	assert.Contains(t, err.Error(), "expired")
}
