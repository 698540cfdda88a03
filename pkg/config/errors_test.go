package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		contains []string
	}{
		{
			name: "with field",
			err:  NewValidationError("profile", "quick", "global_deadline", errors.New("must be positive")),
			contains: []string{"profile", "quick", "global_deadline", "must be positive"},
		},
		{
			name: "without field",
			err:  NewValidationError("system", "", "", errors.New("dashboard_url invalid")),
			contains: []string{"system", "dashboard_url invalid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				assert.Contains(t, errStr, substr)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	validationErr := NewValidationError("sidecar", "ai_detector", "", baseErr)

	assert.Equal(t, baseErr, validationErr.Unwrap())
	assert.True(t, errors.Is(validationErr, baseErr))
}

func TestValidationError_WrapsSentinels(t *testing.T) {
	err := NewValidationError("profile", "custom", "layers", fmt.Errorf("%w: must list at least one layer", ErrMissingRequiredField))
	assert.True(t, errors.Is(err, ErrMissingRequiredField))

	err = NewValidationError("system", "", "bus_buffer_size", fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}
