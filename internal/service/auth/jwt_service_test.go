package auth

import (
	"context"
	"testing"
	"time"

	"github.com/lingocards/lingo-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func newTestJWTService(t *testing.T, secret string, lifetime time.Duration, now func() time.Time) JWTService {
	t.Helper()
	svc, err := newJWTService(secret, lifetime, now)
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 0})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	svc := newTestJWTService(t, testSecret, lifetime, func() time.Time { return fixedTime })

	token, expiresAt, err := svc.GenerateToken(context.Background(), "xiaoming")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, fixedTime.Add(lifetime), expiresAt)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "xiaoming", claims.Username)
	assert.Equal(t, "xiaoming", claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	at := func(d time.Duration) func() time.Time {
		return func() time.Time { return fixedTime.Add(d) }
	}

	tests := []struct {
		name    string
		setup   func(t *testing.T) (JWTService, string)
		wantErr error
	}{
		{
			name: "valid token",
			setup: func(t *testing.T) (JWTService, string) {
				svc := newTestJWTService(t, testSecret, lifetime, at(0))
				token, _, _ := svc.GenerateToken(context.Background(), "xiaoming")
				return svc, token
			},
		},
		{
			name: "within clock skew",
			setup: func(t *testing.T) (JWTService, string) {
				token, _, _ := newTestJWTService(t, testSecret, lifetime, at(0)).
					GenerateToken(context.Background(), "xiaoming")
				return newTestJWTService(t, testSecret, lifetime, at(lifetime+time.Minute)), token
			},
		},
		{
			name: "expired token",
			setup: func(t *testing.T) (JWTService, string) {
				token, _, _ := newTestJWTService(t, testSecret, lifetime, at(0)).
					GenerateToken(context.Background(), "xiaoming")
				return newTestJWTService(t, testSecret, lifetime, at(lifetime+time.Hour)), token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "invalid signature",
			setup: func(t *testing.T) (JWTService, string) {
				token, _, _ := newTestJWTService(t, testSecret, lifetime, at(0)).
					GenerateToken(context.Background(), "xiaoming")
				return newTestJWTService(t, wrongSecret, lifetime, at(0)), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setup: func(t *testing.T) (JWTService, string) {
				return newTestJWTService(t, testSecret, lifetime, at(0)), "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing token",
			setup: func(t *testing.T) (JWTService, string) {
				return newTestJWTService(t, testSecret, lifetime, at(0)), ""
			},
			wantErr: ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, token := tt.setup(t)
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "xiaoming", claims.Username)
		})
	}
}
