package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	sentinel := New(KindSlotUnavailable, "slot is not available")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"sentinel", sentinel, KindSlotUnavailable},
		{"wrapped sentinel", fmt.Errorf("book: %w", sentinel), KindSlotUnavailable},
		{"internal wrap", Internal(errors.New("connection reset")), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageOfHidesCause(t *testing.T) {
	err := Internal(errors.New("pq: password authentication failed"))

	assert.Equal(t, "internal error", MessageOf(err))
	assert.Contains(t, err.Error(), "password authentication failed")
	assert.Equal(t, "internal error", MessageOf(errors.New("raw")))
}

func TestSentinelIdentity(t *testing.T) {
	a := New(KindNotFound, "appointment not found")
	b := New(KindNotFound, "appointment not found")

	assert.True(t, errors.Is(fmt.Errorf("x: %w", a), a))
	assert.False(t, errors.Is(a, b))
}
