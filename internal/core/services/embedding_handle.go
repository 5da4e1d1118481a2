package services

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// providerCell boxes the interface so it can live in an atomic.Pointer.
type providerCell struct {
	provider driven.EmbeddingProvider
}

// EmbeddingHandle is a swappable reference to the live embedding provider.
// Readers take the current provider once per operation; a swap does not
// affect calls already holding the previous provider.
type EmbeddingHandle struct {
	swapMu  sync.Mutex
	current atomic.Pointer[providerCell]
}

// NewEmbeddingHandle creates a handle. provider may be nil.
func NewEmbeddingHandle(provider driven.EmbeddingProvider) *EmbeddingHandle {
	h := &EmbeddingHandle{}
	if provider != nil {
		h.current.Store(&providerCell{provider: provider})
	}
	return h
}

// Current returns the live provider, or nil if none has been set.
func (h *EmbeddingHandle) Current() driven.EmbeddingProvider {
	cell := h.current.Load()
	if cell == nil {
		return nil
	}
	return cell.provider
}

// Swap installs next and closes the provider it replaces.
// The close error is returned after the swap has taken effect.
func (h *EmbeddingHandle) Swap(next driven.EmbeddingProvider) error {
	h.swapMu.Lock()
	defer h.swapMu.Unlock()

	var cell *providerCell
	if next != nil {
		cell = &providerCell{provider: next}
	}
	prev := h.current.Swap(cell)

	if prev == nil || prev.provider == nil {
		return nil
	}
	if err := prev.provider.Close(); err != nil {
		return fmt.Errorf("closing previous embedding provider: %w", err)
	}
	return nil
}

// Close closes the live provider and empties the handle.
func (h *EmbeddingHandle) Close() error {
	return h.Swap(nil)
}
