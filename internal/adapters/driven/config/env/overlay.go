// Package env overlays environment variables on a driven.ConfigStore.
//
// SERCHA_RAG_<GROUP>_<NAME> maps to the key group.name, so
// SERCHA_RAG_RETRIEVAL_TOP_K overrides retrieval.top_k. Conventional
// credential variables (OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY)
// only fill keys that are otherwise empty. Values from .env files apply
// when the process environment does not set the same variable.
package env

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// Prefix is the environment variable prefix for config keys.
const Prefix = "SERCHA_RAG_"

// Conventional credential variables.
const (
	OpenAIKeyVar     = "OPENAI_API_KEY"
	GeminiKeyVar     = "GEMINI_API_KEY"
	OpenRouterKeyVar = "OPENROUTER_API_KEY"
)

// Store wraps a ConfigStore and serves environment overrides ahead of it.
// Writes go to the wrapped store only.
type Store struct {
	base     driven.ConfigStore
	envFiles []string
	environ  func() []string

	mu        sync.RWMutex
	overrides map[string]string
}

// Option configures a Store.
type Option func(*Store)

// WithEnvFiles sets the .env files read on every Load.
// Missing files are skipped. Earlier files take precedence.
func WithEnvFiles(paths ...string) Option {
	return func(s *Store) {
		s.envFiles = append(s.envFiles, paths...)
	}
}

// WithEnviron replaces os.Environ as the process environment source.
func WithEnviron(fn func() []string) Option {
	return func(s *Store) {
		s.environ = fn
	}
}

// New wraps base and computes the initial overrides.
func New(base driven.ConfigStore, opts ...Option) (*Store, error) {
	s := &Store{
		base:    base,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// refresh rebuilds the override table from .env files and the environment.
func (s *Store) refresh() error {
	vars := make(map[string]string)

	// Later files lose to earlier ones, so apply in reverse.
	for i := len(s.envFiles) - 1; i >= 0; i-- {
		path := s.envFiles[i]
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fileVars, err := godotenv.Read(path)
		if err != nil {
			return err
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, kv := range s.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[k] = v
		}
	}

	overrides := make(map[string]string)
	for name, value := range vars {
		key, ok := KeyForVar(name)
		if !ok || value == "" {
			continue
		}
		overrides[key] = value
	}

	lookup := func(key string) string {
		if v, ok := overrides[key]; ok {
			return v
		}
		return s.base.GetString(key)
	}

	fill := func(key, varName string) {
		if lookup(key) != "" {
			return
		}
		if v := vars[varName]; v != "" {
			overrides[key] = v
		}
	}

	switch domain.RemoteAPI(lookup("embedding.api")) {
	case domain.RemoteAPIGemini:
		fill("embedding.api_key", GeminiKeyVar)
	case domain.RemoteAPIOpenAI, "":
		fill("embedding.api_key", OpenAIKeyVar)
	}
	fill("llm.api_key", OpenRouterKeyVar)

	s.mu.Lock()
	s.overrides = overrides
	s.mu.Unlock()
	return nil
}

// KeyForVar maps SERCHA_RAG_GROUP_NAME to group.name.
func KeyForVar(name string) (string, bool) {
	if !strings.HasPrefix(name, Prefix) {
		return "", false
	}
	rest := strings.ToLower(strings.TrimPrefix(name, Prefix))
	group, field, ok := strings.Cut(rest, "_")
	if !ok || group == "" || field == "" {
		return "", false
	}
	return group + "." + field, true
}

// Overridden reports whether the environment supplies key.
func (s *Store) Overridden(key string) bool {
	_, ok := s.override(key)
	return ok
}

func (s *Store) override(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.overrides[key]
	return v, ok
}

// Get retrieves a configuration value by key.
func (s *Store) Get(key string) (any, bool) {
	if v, ok := s.override(key); ok {
		return v, true
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *Store) GetString(key string) string {
	if v, ok := s.override(key); ok {
		return v
	}
	return s.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
func (s *Store) GetInt(key string) int {
	if v, ok := s.override(key); ok {
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return s.base.GetInt(key)
}

// GetFloat retrieves a floating point configuration value.
func (s *Store) GetFloat(key string) float64 {
	if v, ok := s.override(key); ok {
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return s.base.GetFloat(key)
}

// GetBool retrieves a boolean configuration value.
func (s *Store) GetBool(key string) bool {
	if v, ok := s.override(key); ok {
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return s.base.GetBool(key)
}

// GetDuration retrieves a duration configuration value.
func (s *Store) GetDuration(key string) time.Duration {
	if v, ok := s.override(key); ok {
		d, _ := time.ParseDuration(strings.TrimSpace(v))
		return d
	}
	return s.base.GetDuration(key)
}

// Keys returns the union of file and environment keys, sorted.
func (s *Store) Keys() []string {
	seen := make(map[string]struct{})
	for _, k := range s.base.Keys() {
		seen[k] = struct{}{}
	}
	s.mu.RLock()
	for k := range s.overrides {
		seen[k] = struct{}{}
	}
	s.mu.RUnlock()

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set writes to the wrapped store. An environment override for the same
// key keeps winning on reads.
func (s *Store) Set(key string, value any) error {
	if s.Overridden(key) {
		logger.Warn("config: %s is set in the environment; the stored value is shadowed", key)
	}
	return s.base.Set(key, value)
}

// Save persists the wrapped store.
func (s *Store) Save() error {
	return s.base.Save()
}

// Load reloads the wrapped store and re-reads the environment.
func (s *Store) Load() error {
	if err := s.base.Load(); err != nil {
		return err
	}
	return s.refresh()
}

// Path returns the wrapped store's path.
func (s *Store) Path() string {
	return s.base.Path()
}
