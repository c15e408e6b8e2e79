package postprocessors

import (
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/postprocessors/chunker"
	"github.com/custodia-labs/lexgate/internal/postprocessors/classifier"
	"github.com/custodia-labs/lexgate/internal/postprocessors/decision"
	"github.com/custodia-labs/lexgate/internal/postprocessors/statute"
)

// RegisterDefaults registers the built-in strategies with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("statute", func(cfg map[string]any) (driven.ChunkStrategy, error) {
		return statute.New(buildSplitter(cfg)), nil
	})
	r.Register("decision", func(cfg map[string]any) (driven.ChunkStrategy, error) {
		return decision.New(buildSplitter(cfg)), nil
	})
}

// NewDefaultPipeline builds the statute and decision strategies from cfg
// and wires them behind the rule classifier.
// Supported config keys:
//   - max_chars (int): chunk bound (default: 2500)
//   - min_chars (int): minimum trailing piece (default: 50)
func NewDefaultPipeline(cfg map[string]any) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	p := NewPipeline(classifier.New())
	for _, name := range r.Names() {
		s, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		p.Add(s)
	}
	return p, nil
}

func buildSplitter(cfg map[string]any) *chunker.Splitter {
	var opts []chunker.Option
	if cfg != nil {
		if n := getIntFromConfig(cfg, "max_chars"); n > 0 {
			opts = append(opts, chunker.WithMaxChars(n))
		}
		if _, ok := cfg["min_chars"]; ok {
			opts = append(opts, chunker.WithMinChars(getIntFromConfig(cfg, "min_chars")))
		}
	}
	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
