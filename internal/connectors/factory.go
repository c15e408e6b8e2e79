package connectors

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/lexgate/internal/connectors/cantonal"
	"github.com/custodia-labs/lexgate/internal/connectors/entscheidsuche"
	"github.com/custodia-labs/lexgate/internal/connectors/fedlex"
	"github.com/custodia-labs/lexgate/internal/connectors/httpclient"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Default request rates per source type, in requests per second.
const (
	DefaultFedlexRPS         = 2.0
	DefaultEntscheidsucheRPS = 3.0
	DefaultCantonalRPS       = 1.0
)

// SupportedTypes returns the source types NewFetcher understands.
func SupportedTypes() []string {
	return []string{domain.SourceTypeFedlex, domain.SourceTypeEntscheidsuche, domain.SourceTypeCantonal}
}

// NewFetcher creates the fetcher for a source. httpClient may be nil.
func NewFetcher(src domain.SourceConfig, httpClient *http.Client) (driven.Fetcher, error) {
	client := func(defaultRPS float64) *httpclient.Client {
		rps := src.RPS
		if rps <= 0 {
			rps = defaultRPS
		}
		return httpclient.New(httpclient.Config{
			RPS:     rps,
			Burst:   src.Burst,
			Timeout: src.Timeout,
		}, httpClient)
	}

	switch src.Type {
	case domain.SourceTypeFedlex:
		cfg, err := fedlex.ParseConfig(src)
		if err != nil {
			return nil, err
		}
		return fedlex.New(src.ID, cfg, client(DefaultFedlexRPS)), nil

	case domain.SourceTypeEntscheidsuche:
		cfg, err := entscheidsuche.ParseConfig(src)
		if err != nil {
			return nil, err
		}
		return entscheidsuche.New(src.ID, cfg, client(DefaultEntscheidsucheRPS)), nil

	case domain.SourceTypeCantonal:
		cfg, err := cantonal.ParseConfig(src)
		if err != nil {
			return nil, err
		}
		return cantonal.New(src.ID, cfg, client(DefaultCantonalRPS)), nil
	}

	return nil, fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, src.Type)
}
