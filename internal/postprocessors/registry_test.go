package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// registryMockStrategy is a simple mock for testing registry functionality.
type registryMockStrategy struct {
	name string
}

func (m *registryMockStrategy) Name() string              { return m.name }
func (m *registryMockStrategy) Kind() domain.DocumentKind { return domain.KindStatute }
func (m *registryMockStrategy) Chunk(_ context.Context, _ *domain.LegalDocument) ([]domain.Chunk, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := NewRegistry()

	r.Register("test", func(cfg map[string]any) (driven.ChunkStrategy, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &registryMockStrategy{name: name}, nil
	})

	if !r.Has("test") {
		t.Fatal("expected 'test' to be registered")
	}

	s, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Name() != "custom" {
		t.Errorf("expected name 'custom', got %q", s.Name())
	}
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("nonexistent", nil)
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	r := NewRegistry()
	r.Register("failing", func(_ map[string]any) (driven.ChunkStrategy, error) {
		return nil, errors.New("builder error")
	})

	if _, err := r.Build("failing", nil); err == nil {
		t.Error("expected builder error")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	names := r.Names()
	if len(names) != 2 || names[0] != "decision" || names[1] != "statute" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{"int": 5, "int64": int64(6), "float": 7.0, "string": "8"}

	tests := map[string]int{"int": 5, "int64": 6, "float": 7, "string": 0, "missing": 0}
	for key, expected := range tests {
		if got := getIntFromConfig(cfg, key); got != expected {
			t.Errorf("%s: expected %d, got %d", key, expected, got)
		}
	}
}
