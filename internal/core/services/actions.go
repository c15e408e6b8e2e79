package services

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Ensure EvidenceActions implements the interface.
var _ driving.EvidenceActions = (*EvidenceActions)(nil)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// EvidenceActions copies and opens evidence items from interactive surfaces.
type EvidenceActions struct {
	// run starts a command; replaced in tests.
	run func(cmd *exec.Cmd) error
}

// NewEvidenceActions creates the actions backed by OS utilities.
func NewEvidenceActions() *EvidenceActions {
	return &EvidenceActions{run: func(cmd *exec.Cmd) error { return cmd.Run() }}
}

// CopyCitation copies the citation, URL and text of an evidence item to
// the system clipboard.
func (a *EvidenceActions) CopyCitation(item *domain.ScoredChunk) error {
	if item == nil {
		return fmt.Errorf("evidence item is nil")
	}
	cmd, err := clipboardCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(FormatCitation(item))
	return a.run(cmd)
}

// OpenSource opens the cited passage in the default browser.
func (a *EvidenceActions) OpenSource(item *domain.ScoredChunk) error {
	if item == nil {
		return fmt.Errorf("evidence item is nil")
	}
	u, err := url.Parse(item.Chunk.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("no web URL for %s", item.Chunk.Citation)
	}
	cmd, err := openCommand(u.String())
	if err != nil {
		return err
	}
	return a.run(cmd)
}

// FormatCitation renders an evidence item as plain text for sharing.
func FormatCitation(item *domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(item.Chunk.Citation)
	if item.DocumentTitle != "" && item.DocumentTitle != item.Chunk.Citation {
		b.WriteString(" (" + item.DocumentTitle + ")")
	}
	if item.Chunk.URL != "" {
		b.WriteString("\n" + item.Chunk.URL)
	}
	b.WriteString("\n\n" + item.Chunk.Text)
	return b.String()
}

// clipboardCommand returns the OS-specific command reading stdin into the clipboard.
func clipboardCommand() (*exec.Cmd, error) {
	switch runtime.GOOS {
	case osDarwin:
		return exec.Command("pbcopy"), nil
	case osLinux:
		// Try xclip first, fall back to xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard"), nil
		}
		if _, err := exec.LookPath("xsel"); err == nil {
			return exec.Command("xsel", "--clipboard", "--input"), nil
		}
		return nil, fmt.Errorf("no clipboard utility found (install xclip or xsel)")
	case osWindows:
		return exec.Command("cmd", "/c", "clip"), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// openCommand returns the OS-specific command opening a URL.
func openCommand(target string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case osDarwin:
		return exec.Command("open", target), nil
	case osLinux:
		return exec.Command("xdg-open", target), nil
	case osWindows:
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
