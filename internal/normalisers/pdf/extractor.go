// Package pdf extracts per-page text from PDF files using pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const toolName = "pdftotext"

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its standard output.
// It exists so tests can replace pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extractor reads PDF files page by page.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor that shells out to pdftotext.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Format returns the document type this extractor reads.
func (e *Extractor) Format() domain.DocType {
	return domain.DocTypePDF
}

// Extract returns one segment per page, blank pages included, with 1-based locators.
func (e *Extractor) Extract(ctx context.Context, filePath string) ([]driven.Segment, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidInput
	}

	out, err := e.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", filePath, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w: %s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	return SplitPages(string(out)), nil
}

// SplitPages splits pdftotext output into pages.
// pdftotext ends every page with a form feed, so a trailing empty piece is dropped.
func SplitPages(text string) []driven.Segment {
	if text == "" {
		return nil
	}

	pages := strings.Split(text, pageBreak)
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}

	segments := make([]driven.Segment, 0, len(pages))
	for i, page := range pages {
		segments = append(segments, driven.Segment{Text: page, Locator: i + 1})
	}
	return segments
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns a hint for installing pdftotext.
func InstallInstructions() string {
	return "install pdftotext (poppler): brew install poppler | apt install poppler-utils"
}
