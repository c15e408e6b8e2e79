package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func TestNewFetcher(t *testing.T) {
	tests := []struct {
		name string
		src  domain.SourceConfig
		kind domain.DocumentKind
	}{
		{"fedlex", domain.SourceConfig{ID: "fedlex", Type: domain.SourceTypeFedlex}, domain.KindStatute},
		{"decisions", domain.SourceConfig{ID: "bger", Type: domain.SourceTypeEntscheidsuche, RPS: 5}, domain.KindDecision},
		{"cantonal", domain.SourceConfig{ID: "tax", Type: domain.SourceTypeCantonal}, domain.KindStatute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFetcher(tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.src.ID, f.SourceID())
			assert.Equal(t, tt.kind, f.Kind())
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewFetcher(domain.SourceConfig{ID: "x", Type: "notion"}, nil)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := NewFetcher(domain.SourceConfig{
			ID: "tax", Type: domain.SourceTypeCantonal, Filters: map[string]string{"cantons": "XX"},
		}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	assert.Len(t, SupportedTypes(), 3)
}
