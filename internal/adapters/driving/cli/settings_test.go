package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

func TestSettingsCommand(t *testing.T) {
	_, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings"})
	defer func() { rootCmd.SetArgs(nil) }()

	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	for _, want := range []string{
		"[Chunking]", "Size: 1000", "Overlap: 200",
		"[Retrieval]", "Top K: 5", "Max context chars: 3000", "Max chunk chars: 800", "Collection: documents",
		"[Embedding]", "Kind: Remote (hosted embedding API)", "Model: text-embedding-ada-002", "Status: not configured",
		"[Cache]", "Size: 1024 vectors", "TTL: 1h0m0s",
		"[Store]", "Backend: sqlite",
		"[LLM]",
		"Configuration is valid.",
	} {
		assert.Contains(t, output, want)
	}
}

func TestSettingsShowCommand_Local(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()
	require.NoError(t, ts.config.Set(services.KeyEmbedKind, "local"))
	require.NoError(t, ts.config.Set(services.KeyCacheSize, 0))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() { rootCmd.SetArgs(nil) }()

	require.NoError(t, rootCmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "Kind: Local (in-process model)")
	assert.Contains(t, output, "Model: hash-384")
	assert.Contains(t, output, "Status: configured")
	assert.Contains(t, output, "Disabled")
}

func TestSettingsCommand_InvalidWarning(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()
	require.NoError(t, ts.config.Set(services.KeyStoreBackend, "pgvector"))
	require.NoError(t, ts.config.Set(services.KeyStoreDSN, ""))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings"})
	defer func() { rootCmd.SetArgs(nil) }()

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Warning:")
	assert.Contains(t, buf.String(), "store.dsn is required")
}

func TestSettingsCommand_JSONMasksKeys(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()
	require.NoError(t, ts.config.Set(services.KeyLLMAPIKey, "sk-or-v1-abcdef123456"))
	require.NoError(t, ts.config.Set(services.KeyStoreDSN, "postgres://rag:secret@db:5432/rag"))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "--json"})
	defer func() { rootCmd.SetArgs(nil) }()

	require.NoError(t, rootCmd.Execute())

	var settings domain.AppSettings
	require.NoError(t, json.Unmarshal(buf.Bytes(), &settings))
	assert.Equal(t, "sk-o...3456", settings.LLM.APIKey)
	assert.Empty(t, settings.Embedding.APIKey)
	assert.Equal(t, 1000, settings.Chunking.Size)
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"123456789", "1234...6789"},
		{"sk-or-v1-abcdef123456", "sk-o...3456"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, maskAPIKey(tt.key))
		})
	}
}

func TestMaskOptional(t *testing.T) {
	assert.Equal(t, "", maskOptional(""))
	assert.Equal(t, "****", maskOptional("abc"))
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"password", "postgres://rag:secret@db:5432/rag", "postgres://rag:****@db:5432/rag"},
		{"user only", "postgres://rag@db/rag", "postgres://rag@db/rag"},
		{"no userinfo", "postgres://db/rag", "postgres://db/rag"},
		{"key value form", "host=db user=rag", "host=db user=rag"},
		{"at in password", "postgres://rag:p@ss@db/rag", "postgres://rag:****@db/rag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redactDSN(tt.dsn))
		})
	}
}
