package auth

import (
	"context"
	"time"
)

// MockJWTService is a mock implementation of the JWTService interface for testing.
type MockJWTService struct {
	// Function fields for custom behaviors
	GenerateTokenFunc func(ctx context.Context, username string) (string, time.Time, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	// Fixed fields for simple cases
	Token           string    // Default token to return
	ExpiresAt       time.Time // Default expiry to return
	TokenError      error     // Default error for token generation
	ValidationError error     // Default error for token validation
	Claims          *Claims   // Default claims to return
}

var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTService creates a new mock JWT service whose tokens validate as
// the given username.
func NewMockJWTService(username string) *MockJWTService {
	now := time.Now()
	return &MockJWTService{
		Token:     "mock-jwt-token",
		ExpiresAt: now.Add(time.Hour),
		Claims: &Claims{
			Username:  username,
			Subject:   username,
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Hour),
			ID:        "mock-token-id",
		},
	}
}

// GenerateToken implements the JWTService.GenerateToken method.
func (m *MockJWTService) GenerateToken(ctx context.Context, username string) (string, time.Time, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, username)
	}
	return m.Token, m.ExpiresAt, m.TokenError
}

// ValidateToken implements the JWTService.ValidateToken method.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	return m.Claims, nil
}
