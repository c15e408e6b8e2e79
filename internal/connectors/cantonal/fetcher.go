package cantonal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexgate/internal/connectors/httpclient"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// acceptLanguage prefers the Swiss national languages.
const acceptLanguage = "fr-CH,fr;q=0.9,de-CH;q=0.8,it-CH;q=0.7"

// Config holds the parsed configuration for a cantonal source.
type Config struct {
	// Cantons restricts the catalog. Empty means every canton.
	Cantons []string

	// Circulars adds the federal tax circulars.
	Circulars bool

	// Laws overrides the built-in catalog.
	Laws []Law
}

// ParseConfig parses a source's filter map into a Config.
//
// Recognised keys: cantons (comma-separated codes), circulars ("true").
func ParseConfig(source domain.SourceConfig) (*Config, error) {
	cfg := &Config{Circulars: source.Filter("circulars") == "true"}

	if v := source.Filter("cantons"); v != "" {
		known := make(map[string]bool, len(TaxLaws))
		for _, l := range TaxLaws {
			known[l.Code] = true
		}
		for _, c := range strings.Split(v, ",") {
			c = strings.ToUpper(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			if !known[c] {
				return nil, fmt.Errorf("%w: unknown canton %q", domain.ErrInvalidInput, c)
			}
			cfg.Cantons = append(cfg.Cantons, c)
		}
	}

	return cfg, nil
}

// Fetcher implements driven.Fetcher over the fixed catalog.
type Fetcher struct {
	sourceID string
	laws     []Law
	client   *httpclient.Client
	now      func() time.Time
}

// Verify interface compliance at compile time.
var _ driven.Fetcher = (*Fetcher)(nil)

// New creates a cantonal fetcher.
func New(sourceID string, cfg *Config, client *httpclient.Client) *Fetcher {
	laws := cfg.Laws
	if laws == nil {
		laws = selectLaws(cfg)
	}
	return &Fetcher{
		sourceID: sourceID,
		laws:     laws,
		client:   client,
		now:      time.Now,
	}
}

func selectLaws(cfg *Config) []Law {
	var out []Law
	if len(cfg.Cantons) == 0 {
		out = append(out, TaxLaws...)
	} else {
		want := make(map[string]bool, len(cfg.Cantons))
		for _, c := range cfg.Cantons {
			want[c] = true
		}
		for _, l := range TaxLaws {
			if want[l.Code] {
				out = append(out, l)
			}
		}
	}
	if cfg.Circulars {
		out = append(out, Circulars...)
	}
	return out
}

// SourceID returns the configured source identifier.
func (f *Fetcher) SourceID() string { return f.sourceID }

// Kind returns domain.KindStatute.
func (f *Fetcher) Kind() domain.DocumentKind { return domain.KindStatute }

// ListCatalog returns the whole catalog as a single final page.
func (f *Fetcher) ListCatalog(_ context.Context, cursor string) (*domain.CatalogPage, error) {
	if cursor != "" {
		return &domain.CatalogPage{NextCursor: cursor, Done: true}, nil
	}

	entries := make([]domain.CatalogEntry, 0, len(f.laws))
	for _, l := range f.laws {
		entries = append(entries, f.entry(l))
	}
	return &domain.CatalogPage{Entries: entries, NextCursor: "done", Done: true}, nil
}

func (f *Fetcher) entry(l Law) domain.CatalogEntry {
	format := domain.FormatMarkup
	if l.Mode == ModePDF {
		format = domain.FormatBinary
	}
	reference := l.Short
	if reference == "" {
		reference = l.RS
	}
	if l.Jurisdiction != domain.JurisdictionFederal {
		reference = reference + "/" + l.Jurisdiction
	}

	catalogID := strings.ToLower(l.Code)
	if l.Jurisdiction != domain.JurisdictionFederal && l.Short != "" {
		catalogID += "-" + strings.ToLower(l.Short)
	}

	return domain.CatalogEntry{
		SourceID:  f.sourceID,
		CatalogID: catalogID,
		Kind:      domain.KindStatute,
		Format:    format,
		Title:     l.Name,
		URL:       l.URL,
		Metadata: map[string]string{
			"source_type":  domain.SourceTypeCantonal,
			"reference":    reference,
			"rs_cantonal":  l.RS,
			"jurisdiction": l.Jurisdiction,
			"language":     l.Language,
			"legal_domain": l.LegalDomain,
			"scrape_mode":  string(l.Mode),
			"selector":     l.Selector,
		},
	}
}

// FetchItem downloads a law. Manual entries fail with domain.ErrManualSource.
func (f *Fetcher) FetchItem(ctx context.Context, entry domain.CatalogEntry) (*domain.RawItem, error) {
	if ScrapeMode(entry.Metadata["scrape_mode"]) == ModeManual {
		return nil, fmt.Errorf("%s (%s): %w", entry.CatalogID, entry.URL, domain.ErrManualSource)
	}

	resp, err := f.client.Get(ctx, entry.URL, map[string]string{"Accept-Language": acceptLanguage})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", entry.URL, err)
	}

	return &domain.RawItem{
		Entry:       entry,
		URL:         entry.URL,
		ContentType: resp.ContentType,
		Content:     resp.Body,
		FetchedAt:   f.now(),
	}, nil
}
