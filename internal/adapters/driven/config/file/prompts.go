package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompts are seeded into the prompt directory and served whenever
// a file is missing or unreadable.
var builtinPrompts = map[string]string{
	driven.PromptAnswerSystem: driven.DefaultAnswerPrompt,
}

const promptReadme = `# lexgate prompts

Templates used by "lexgate retrieve --answer" and the MCP answer tool.

- answer_system.txt: system prompt of the answer generator

The template must contain exactly one %s, which receives the numbered
legal context. Any other percent sign makes the template unusable and the
built-in prompt is used instead.

Edits are picked up on the next query. Delete a file to restore it.
`

// PromptStore serves prompt templates from <dir>/<name>.txt. A file is
// re-read when its modification time changes, so a running MCP server
// follows edits without a restart.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu      sync.Mutex
	entries map[string]promptEntry
}

type promptEntry struct {
	modTime time.Time
	text    string
}

// NewPromptStore creates a store rooted at dir, or ~/.lexgate/prompts when
// dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".lexgate", "prompts")
	}
	return &PromptStore{dir: dir, entries: make(map[string]promptEntry)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string { return s.dir }

// Load returns the named template. Known prompts always resolve: to the
// file when it is readable and non-blank, to the built-in text otherwise.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	builtin, known := builtinPrompts[name]
	text, err := s.read(name)
	switch {
	case err == nil && text != "":
		return text, nil
	case known:
		return builtin, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	default:
		return "", fmt.Errorf("load prompt %q: file is empty", name)
	}
}

// read returns the trimmed file content, reusing the cached text while the
// modification time is unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		s.forget(name)
		return "", err
	}

	s.mu.Lock()
	cached, ok := s.entries[name]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	s.mu.Lock()
	s.entries[name] = promptEntry{modTime: info.ModTime(), text: text}
	s.mu.Unlock()
	return text, nil
}

func (s *PromptStore) forget(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// seed creates the directory, the built-in prompt files and the README.
// Existing files are never overwritten. A failure is remembered and
// reported by Load only for prompts without a built-in.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, text := range builtinPrompts {
		files[name+".txt"] = text + "\n"
	}
	for name, content := range files {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			s.seedErr = errors.Join(s.seedErr, fmt.Errorf("write %s: %w", name, err))
		}
	}
}
