package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name:     "with underlying error",
			err:      NewServiceError("create_card", "failed to save card", errors.New("connection refused")),
			expected: "create_card operation failed: failed to save card: connection refused",
		},
		{
			name:     "without underlying error",
			err:      NewServiceError("reset", "seed file is empty", nil),
			expected: "reset operation failed: seed file is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	inner := NewServiceError("inner", "inner failed", sentinel)
	outer := NewServiceError("outer", "outer failed", inner)

	assert.ErrorIs(t, outer, sentinel)

	var target *ServiceError
	assert.True(t, errors.As(outer, &target))
	assert.Equal(t, "outer", target.Operation)

	assert.True(t, errors.As(outer.Unwrap(), &target))
	assert.Equal(t, "inner", target.Operation)

	assert.Nil(t, NewServiceError("op", "msg", nil).Unwrap())
}
