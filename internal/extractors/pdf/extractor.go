// Package pdf extracts text from PDF payloads using poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// ErrNotPDF is returned for payloads without a PDF header.
var ErrNotPDF = errors.New("payload is not a PDF")

const (
	toolName = "pdftotext"

	// maxTitleLen bounds the first-line title heuristic.
	maxTitleLen = 200
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
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

// Extractor converts PDF payloads into page sections.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor backed by the pdftotext binary.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "pdftotext" }

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedSources returns nil (all sources).
func (e *Extractor) SupportedSources() []string { return nil }

// Priority returns the selection priority.
func (e *Extractor) Priority() int { return 50 }

// Extract writes the payload to a temporary file, runs pdftotext in layout
// mode and returns one section per non-empty page.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	id := raw.Entry.CatalogID
	if !bytes.HasPrefix(bytes.TrimLeft(raw.Content, " \r\n\t"), []byte("%PDF")) {
		return nil, &domain.ExtractionError{ItemID: id, Err: ErrNotPDF}
	}

	tmp, err := os.CreateTemp("", "lexgate-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.ExtractionError{ItemID: id, Err: fmt.Errorf("pdftotext failed: %w", err)}
	}

	var sections []domain.Section
	var texts []string
	for i, page := range strings.Split(string(out), "\f") {
		text := cleanPage(page)
		if text == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Kind:  domain.SectionPage,
			Label: fmt.Sprintf("p. %d", i+1),
			Page:  i + 1,
			Text:  text,
		})
		texts = append(texts, text)
	}
	if len(sections) == 0 {
		return nil, &domain.ExtractionError{ItemID: id, Err: errors.New("no text layer")}
	}

	full := strings.Join(texts, "\n\n")
	uri := raw.URL
	if uri == "" {
		uri = raw.Entry.URL
	}
	title := raw.Entry.Title
	if title == "" {
		title = extractTitle(full, uri)
	}
	return &domain.Extraction{Title: title, Text: full, Sections: sections}, nil
}

// cleanPage trims trailing spaces and collapses blank line runs.
func cleanPage(page string) string {
	lines := strings.Split(page, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// extractTitle returns the first reasonably short line, or a name derived
// from the URI.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\x00"))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxTitleLen {
			return line
		}
	}
	base := path.Base(uri)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

// CheckAvailable returns ErrPDFToolNotFound when pdftotext is missing.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return `PDF extraction requires pdftotext (poppler).

  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}
