package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrChunkingConfig", ErrChunkingConfig},
		{"ErrEmbeddingBackend", ErrEmbeddingBackend},
		{"ErrUnsupportedProvider", ErrUnsupportedProvider},
		{"ErrStorage", ErrStorage},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrStorage, ErrEmbeddingBackend))
	assert.False(t, errors.Is(ErrUnsupportedProvider, ErrUnsupportedType))
	assert.False(t, errors.Is(ErrChunkingConfig, ErrInvalidInput))
}

func TestErrors_WrappedWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("%w: openai: %w", ErrEmbeddingBackend, cause)

	assert.ErrorIs(t, err, ErrEmbeddingBackend)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
