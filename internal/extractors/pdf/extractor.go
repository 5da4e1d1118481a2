// Package pdf extracts text from PDF files using the external pdftotext tool.
//
// pdftotext ships with poppler. The extractor shells out to it and reads
// UTF-8 text from stdout, so no PDF parsing happens in process.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// ConversionMethod is recorded in extraction metadata.
const ConversionMethod = "pdftotext"

// toolName is the external binary invoked for extraction.
const toolName = "pdftotext"

// maxTitleLength bounds the first-line title.
const maxTitleLength = 200

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPDFToolNotFound, InstallInstructions())
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Extractor handles PDF files.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor that runs pdftotext.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return "install poppler to get pdftotext (macOS: brew install poppler, Debian/Ubuntu: apt install poppler-utils)"
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Supports reports whether the file has a .pdf extension.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Extract converts the PDF to text. Page breaks become blank lines.
func (e *Extractor) Extract(ctx context.Context, path string) (string, domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	out, err := e.runner.Run(ctx, toolName, "-enc", "UTF-8", "-layout", path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return "", nil, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedType, filepath.Base(path), err)
		}
		return "", nil, fmt.Errorf("%w: pdftotext failed on %s: %w", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	text := normalise(string(out))
	if text == "" {
		return "", nil, fmt.Errorf("%w: %s has no extractable text", domain.ErrInvalidInput, filepath.Base(path))
	}

	meta := domain.Metadata{domain.MetaConversionMethod: ConversionMethod}
	if title := extractTitle(text); title != "" {
		meta[domain.MetaTitle] = title
	}
	return text, meta, nil
}

// normalise turns form feeds into blank lines and trims trailing spaces.
func normalise(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\f", "\n\n")

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractTitle returns the first non-empty line if it is short enough.
func extractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxTitleLength {
			return ""
		}
		return line
	}
	return ""
}
