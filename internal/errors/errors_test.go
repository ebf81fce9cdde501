package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppError(ErrTypeValidation, "bad input", nil),
			want: "[VALIDATION] bad input",
		},
		{
			name: "with cause",
			err:  NewAppError(ErrTypeNetwork, "fetch failed", fmt.Errorf("connection refused")),
			want: "[NETWORK] fetch failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewAppError(ErrTypeModelFit, "fit failed", cause)

	assert.True(t, stderrors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewDataUnavailableError("AAPL").WithContext("range", "2024")

	assert.Equal(t, "2024", err.Context["range"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{
			name:     "data unavailable",
			err:      NewDataUnavailableError("AAPL"),
			wantType: ErrTypeDataUnavailable,
			wantMsg:  "no price data available for AAPL",
		},
		{
			name:     "insufficient data",
			err:      NewInsufficientDataError("training segment has no valid target values", nil),
			wantType: ErrTypeInsufficientData,
			wantMsg:  "training segment has no valid target values",
		},
		{
			name:     "model fit",
			err:      NewModelFitError("seasonal", fmt.Errorf("singular")),
			wantType: ErrTypeModelFit,
			wantMsg:  "seasonal model failed to fit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
		})
	}
}

func TestIsType(t *testing.T) {
	err := NewDataUnavailableError("AAPL")

	assert.True(t, IsType(err, ErrTypeDataUnavailable))
	assert.False(t, IsType(err, ErrTypeNetwork))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeNetwork))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeDataUnavailable))
}

func TestAsAppError(t *testing.T) {
	appErr := NewModelFitError("regression", nil)

	got, ok := AsAppError(fmt.Errorf("wrap: %w", appErr))
	require.True(t, ok)
	assert.Equal(t, appErr, got)

	_, ok = AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}
