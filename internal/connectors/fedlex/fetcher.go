package fedlex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexgate/internal/connectors/httpclient"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/logger"
)

const (
	// DefaultEndpoint is the public Fedlex SPARQL endpoint.
	DefaultEndpoint = "https://fedlex.data.admin.ch/sparqlendpoint"

	// DataBase is the linked-data host that prefixes every ELI URI.
	DataBase = "https://fedlex.data.admin.ch"

	// SiteBase is the public website used for article links.
	SiteBase = "https://www.fedlex.admin.ch"

	// LanguageFRA is the EU authority URI for French.
	LanguageFRA = "http://publications.europa.eu/resource/authority/language/FRA"

	// DefaultPageSize is the number of acts per catalog page.
	DefaultPageSize = 100

	sparqlAccept = "application/sparql-results+json"
)

// PriorityRS lists the codes most used in practice, in order of importance.
var PriorityRS = []string{
	"220",     // CO
	"210",     // CC
	"311.0",   // CP
	"272",     // CPC
	"312.0",   // CPP
	"281.1",   // LP
	"173.110", // LTF
	"291",     // LDIP
	"700",     // LAT
	"142.20",  // LEI
	"101",     // Cst
	"837.0",   // LACI
	"830.1",   // LPGA
	"832.10",  // LAMal
	"831.10",  // LAVS
}

// Config holds the parsed configuration for a Fedlex source.
type Config struct {
	Endpoint    string
	Language    string
	PageSize    int
	InForceOnly bool

	// RSNumbers restricts the catalog. Empty means every act.
	RSNumbers []string
}

// ParseConfig parses a source's filter map into a Config.
//
// Recognised keys: endpoint, page_size, rs (comma-separated), priority
// ("true" selects PriorityRS), include_abrogated.
func ParseConfig(source domain.SourceConfig) (*Config, error) {
	cfg := &Config{
		Endpoint:    DefaultEndpoint,
		Language:    LanguageFRA,
		PageSize:    DefaultPageSize,
		InForceOnly: true,
	}

	if v := source.Filter("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v := source.Filter("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: fedlex page_size %q", domain.ErrInvalidInput, v)
		}
		cfg.PageSize = n
	}
	if v := source.Filter("rs"); v != "" {
		for _, rs := range strings.Split(v, ",") {
			if rs = strings.TrimSpace(rs); rs != "" {
				cfg.RSNumbers = append(cfg.RSNumbers, rs)
			}
		}
	}
	if source.Filter("priority") == "true" && len(cfg.RSNumbers) == 0 {
		cfg.RSNumbers = append(cfg.RSNumbers, PriorityRS...)
	}
	if source.Filter("include_abrogated") == "true" {
		cfg.InForceOnly = false
	}

	return cfg, nil
}

// Fetcher implements driven.Fetcher for Fedlex.
type Fetcher struct {
	sourceID string
	cfg      *Config
	client   *httpclient.Client
	now      func() time.Time
}

// Verify interface compliance at compile time.
var _ driven.Fetcher = (*Fetcher)(nil)

// New creates a Fedlex fetcher.
func New(sourceID string, cfg *Config, client *httpclient.Client) *Fetcher {
	return &Fetcher{
		sourceID: sourceID,
		cfg:      cfg,
		client:   client,
		now:      time.Now,
	}
}

// SourceID returns the configured source identifier.
func (f *Fetcher) SourceID() string { return f.sourceID }

// Kind returns domain.KindStatute.
func (f *Fetcher) Kind() domain.DocumentKind { return domain.KindStatute }

// ListCatalog returns one page of acts.
func (f *Fetcher) ListCatalog(ctx context.Context, cursor string) (*domain.CatalogPage, error) {
	pos, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	query := actListQuery(f.cfg.Language, f.cfg.InForceOnly, f.cfg.RSNumbers, f.cfg.PageSize, pos.Offset)
	bindings, err := f.sparql(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list acts at offset %d: %w", pos.Offset, err)
	}

	page := &domain.CatalogPage{
		Entries: make([]domain.CatalogEntry, 0, len(bindings)),
		Done:    len(bindings) < f.cfg.PageSize,
	}

	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		uri := value(b, "ca")
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		page.Entries = append(page.Entries, f.entry(b))
	}

	next := Cursor{Version: CursorVersion, Offset: pos.Offset + len(bindings)}
	page.NextCursor = next.Encode()

	logger.Debug("fedlex: offset %d returned %d acts (done=%v)", pos.Offset, len(page.Entries), page.Done)
	return page, nil
}

func (f *Fetcher) entry(b map[string]binding) domain.CatalogEntry {
	uri := value(b, "ca")
	eli := strings.TrimPrefix(uri, DataBase)
	rs := value(b, "rsId")
	short := value(b, "titleShort")
	status := value(b, "inForceStatus")
	if i := strings.LastIndex(status, "/"); i >= 0 {
		status = status[i+1:]
	}

	reference := short
	if reference == "" {
		reference = "RS " + rs
	}

	return domain.CatalogEntry{
		SourceID:  f.sourceID,
		CatalogID: strings.TrimPrefix(eli, "/"),
		Kind:      domain.KindStatute,
		Format:    domain.FormatMarkup,
		Title:     cleanHTML(value(b, "title")),
		URL:       SiteBase + eli + "/fr",
		Metadata: map[string]string{
			"source_type":  domain.SourceTypeFedlex,
			"act_uri":      uri,
			"rs_number":    rs,
			"short":        short,
			"reference":    reference,
			"in_force":     status,
			"jurisdiction": domain.JurisdictionFederal,
			"language":     "fr",
		},
	}
}

// FetchItem resolves the latest consolidation of an act and downloads its
// French HTML manifestation.
func (f *Fetcher) FetchItem(ctx context.Context, entry domain.CatalogEntry) (*domain.RawItem, error) {
	actURI := entry.Metadata["act_uri"]
	if actURI == "" {
		actURI = DataBase + "/" + entry.CatalogID
	}

	today := f.now().Format("2006-01-02")
	rows, err := f.sparql(ctx, latestConsolidationQuery(actURI, today))
	if err != nil {
		return nil, fmt.Errorf("latest consolidation of %s: %w", actURI, err)
	}
	if len(rows) == 0 || value(rows[0], "consolidation") == "" {
		return nil, fmt.Errorf("%w: no consolidation applicable for %s", domain.ErrNotFound, actURI)
	}
	consolidation := value(rows[0], "consolidation")
	applicable := value(rows[0], "dateAppl")
	logger.Debug("fedlex: %s latest consolidation %s", entry.CatalogID, applicable)

	rows, err = f.sparql(ctx, htmlManifestationQuery(consolidation, f.cfg.Language))
	if err != nil {
		return nil, fmt.Errorf("html manifestation of %s: %w", consolidation, err)
	}
	if len(rows) == 0 || value(rows[0], "url") == "" {
		return nil, fmt.Errorf("%w: no HTML manifestation for %s", domain.ErrNotFound, consolidation)
	}
	htmlURL := value(rows[0], "url")

	resp, err := f.client.Get(ctx, htmlURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", htmlURL, err)
	}

	entry.Metadata = cloneMetadata(entry.Metadata)
	entry.Metadata["consolidation"] = consolidation
	entry.Metadata["date"] = applicable

	return &domain.RawItem{
		Entry:       entry,
		URL:         htmlURL,
		ContentType: resp.ContentType,
		Content:     resp.Body,
		FetchedAt:   f.now(),
	}, nil
}

func (f *Fetcher) sparql(ctx context.Context, query string) ([]map[string]binding, error) {
	resp, err := f.client.PostForm(ctx, f.cfg.Endpoint, url.Values{"query": {query}}, sparqlAccept)
	if err != nil {
		return nil, err
	}
	var out sparqlResults
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode SPARQL results: %w", err)
	}
	return out.Results.Bindings, nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func cleanHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
