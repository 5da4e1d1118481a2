package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptFile describes one editable answer prompt.
type promptFile struct {
	name     string
	fallback string
	usage    string
}

var promptFiles = []promptFile{
	{
		name:     driven.PromptAnswerSystem,
		fallback: domain.DefaultAnswerSystemPrompt,
		usage:    "System prompt for question answering. No placeholders.",
	},
	{
		name:     driven.PromptAnswerUser,
		fallback: domain.DefaultAnswerUserPrompt,
		usage:    "Wraps the assembled context (first `%s`) and the question (second `%s`).",
	},
}

// defaultPrompts maps prompt names to their built-in text.
var defaultPrompts = func() map[string]string {
	m := make(map[string]string, len(promptFiles))
	for _, p := range promptFiles {
		m[p.name] = p.fallback
	}
	return m
}()

// PromptStore serves answer prompts from <dir>/<name>.txt.
//
// The directory and the default files are written on the first Load, never
// by the constructor. A missing, unreadable or blank file yields the built-in
// prompt. Loaded prompts are cached until Reload.
type PromptStore struct {
	promptDir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.sercha-rag/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".sercha-rag", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for name.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return fallback, nil
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err != nil || prompt == "" {
		prompt = fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// First writer wins so concurrent callers see one value.
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// seed creates the directory, any missing prompt files and the README.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, p := range promptFiles {
		if err := writeIfAbsent(s.path(p.name+".txt"), p.fallback); err != nil {
			s.seedErr = fmt.Errorf("create default prompt %q: %w", p.name, err)
			return
		}
	}

	s.seedErr = writeIfAbsent(s.path("README.md"), readme())
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name + ".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) path(file string) string {
	return filepath.Join(s.promptDir, file)
}

// writeIfAbsent never replaces a user's file.
func writeIfAbsent(path, content string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0600)
}

func readme() string {
	var b strings.Builder
	b.WriteString("# Sercha RAG Prompts\n\n")
	b.WriteString("Prompts used by `sercha-rag ask` and the MCP ask tool.\n\n")
	b.WriteString("## Files\n\n")
	for _, p := range promptFiles {
		fmt.Fprintf(&b, "- `%s.txt` - %s\n", p.name, p.usage)
	}
	b.WriteString("\n## Editing\n\n")
	b.WriteString("Changes apply to the next command, or immediately while `serve` watches\n")
	b.WriteString("the config. A blank file restores the built-in prompt. A template with the\n")
	b.WriteString("wrong number of `%s` placeholders is ignored in favour of the built-in one.\n")
	return b.String()
}
