package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newEmbeddingFixture(t *testing.T) (*EmbeddingService, *SettingsService, *mockFactory, *EmbeddingHandle) {
	t.Helper()
	settings := NewSettingsService(memory.NewConfigStore())
	factory := &mockFactory{}
	handle := NewEmbeddingHandle(nil)
	return NewEmbeddingService(handle, settings, factory), settings, factory, handle
}

func TestEmbeddingService_ReloadBuildsProvider(t *testing.T) {
	svc, _, factory, handle := newEmbeddingFixture(t)

	require.NoError(t, svc.Reload(context.Background()))

	require.Len(t, factory.created, 1)
	assert.Same(t, factory.last(), handle.Current())
	assert.Equal(t, domain.EmbeddingKindRemote, factory.settings[0].Kind)
	assert.Equal(t, domain.DefaultRemoteModel, factory.settings[0].Model)
}

func TestEmbeddingService_ReloadUnchangedIsNoop(t *testing.T) {
	svc, _, factory, _ := newEmbeddingFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Reload(ctx))
	require.NoError(t, svc.Reload(ctx))

	assert.Len(t, factory.created, 1)
}

func TestEmbeddingService_ReloadChangedSwaps(t *testing.T) {
	svc, settings, factory, handle := newEmbeddingFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Reload(ctx))
	first := factory.last()

	require.NoError(t, settings.SetEmbedding(domain.EmbeddingSettings{
		Kind:       domain.EmbeddingKindLocal,
		LocalModel: "hash-128",
	}))
	require.NoError(t, svc.Reload(ctx))

	require.Len(t, factory.created, 2)
	assert.True(t, first.isClosed())
	assert.Equal(t, "hash-128", handle.Current().ModelName())
}

func TestEmbeddingService_ReloadFailureKeepsProvider(t *testing.T) {
	svc, settings, factory, handle := newEmbeddingFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Reload(ctx))
	current := handle.Current()

	require.NoError(t, settings.SetEmbedding(domain.EmbeddingSettings{Kind: domain.EmbeddingKindLocal}))
	factory.createErr = errors.New("model file missing")

	err := svc.Reload(ctx)

	require.Error(t, err)
	assert.Same(t, current, handle.Current())
	assert.Equal(t, "model file missing", svc.Status().Error)
}

func TestEmbeddingService_Status(t *testing.T) {
	svc, _, _, _ := newEmbeddingFixture(t)

	t.Run("before reload", func(t *testing.T) {
		status := svc.Status()
		assert.Empty(t, status.Kind)
		assert.Equal(t, []string{"remote", "local"}, status.SupportedKinds)
	})

	t.Run("after reload", func(t *testing.T) {
		require.NoError(t, svc.Reload(context.Background()))
		status := svc.Status()
		assert.Equal(t, "remote", status.Kind)
		assert.Equal(t, "openai", status.API)
		assert.Equal(t, domain.DefaultRemoteModel, status.Model)
		assert.Equal(t, stubDims, status.Dimensions)
		// No API key yet.
		assert.False(t, status.Configured)
		assert.Empty(t, status.Error)
	})
}

func TestEmbeddingService_Switch(t *testing.T) {
	svc, settings, factory, handle := newEmbeddingFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))

	require.NoError(t, svc.Switch(ctx, domain.EmbeddingKindLocal))

	stored, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingKindLocal, stored.Embedding.Kind)
	assert.Equal(t, "local", handle.Current().Kind())
	assert.Len(t, factory.created, 2)

	status := svc.Status()
	assert.True(t, status.Configured)
	assert.Empty(t, status.API)
}

func TestEmbeddingService_SwitchErrors(t *testing.T) {
	svc, settings, factory, _ := newEmbeddingFixture(t)
	ctx := context.Background()

	t.Run("unknown kind", func(t *testing.T) {
		err := svc.Switch(ctx, domain.EmbeddingKind("quantum"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	})

	t.Run("build failure leaves config untouched", func(t *testing.T) {
		factory.createErr = domain.ErrEmbeddingBackend
		defer func() { factory.createErr = nil }()

		err := svc.Switch(ctx, domain.EmbeddingKindLocal)
		require.ErrorIs(t, err, domain.ErrEmbeddingBackend)

		stored, err := settings.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.EmbeddingKindRemote, stored.Embedding.Kind)
	})
}

func TestEmbeddingService_Probe(t *testing.T) {
	svc, _, _, _ := newEmbeddingFixture(t)
	ctx := context.Background()

	_, err := svc.Probe(ctx)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)

	require.NoError(t, svc.Reload(ctx))

	dims, err := svc.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, stubDims, dims)

	svc.SetValidator(&mockValidator{dims: 768})
	dims, err = svc.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 768, dims)

	svc.SetValidator(&mockValidator{err: domain.ErrEmbeddingBackend})
	_, err = svc.Probe(ctx)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)
}
