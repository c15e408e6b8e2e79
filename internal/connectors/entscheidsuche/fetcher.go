package entscheidsuche

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexgate/internal/connectors/httpclient"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/logger"
)

const (
	// DefaultEndpoint is the public search proxy.
	DefaultEndpoint = "https://entscheidsuche.ch/_search.php"

	// DefaultPageSize is the largest page the index serves.
	DefaultPageSize = 200

	// DefaultLanguage restricts decisions to French texts.
	DefaultLanguage = "fr"
)

// sourceFields are the stored fields requested per hit.
var sourceFields = []string{
	"id", "date", "title", "reference", "abstract",
	"attachment.content_url", "attachment.language",
	"hierarchy", "canton",
}

// Config holds the parsed configuration for an entscheidsuche source.
type Config struct {
	Endpoint  string
	PageSize  int
	Canton    string
	Hierarchy string
	Language  string
	DateFrom  string
	DateTo    string

	// SinceDays sets DateFrom relative to today when DateFrom is empty.
	SinceDays int
}

// ParseConfig parses a source's filter map into a Config.
//
// Recognised keys: endpoint, page_size, canton, hierarchy, lang,
// date_from, date_to, since_days.
func ParseConfig(source domain.SourceConfig) (*Config, error) {
	cfg := &Config{
		Endpoint:  DefaultEndpoint,
		PageSize:  DefaultPageSize,
		Language:  DefaultLanguage,
		Canton:    strings.ToUpper(source.Filter("canton")),
		Hierarchy: source.Filter("hierarchy"),
		DateFrom:  source.Filter("date_from"),
		DateTo:    source.Filter("date_to"),
	}

	if v := source.Filter("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v, ok := source.Filters["lang"]; ok {
		cfg.Language = v
	}
	for key, dst := range map[string]*int{"page_size": &cfg.PageSize, "since_days": &cfg.SinceDays} {
		v := source.Filter(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: entscheidsuche %s %q", domain.ErrInvalidInput, key, v)
		}
		*dst = n
	}
	for _, d := range []string{cfg.DateFrom, cfg.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("%w: entscheidsuche date %q", domain.ErrInvalidInput, d)
		}
	}

	return cfg, nil
}

// Fetcher implements driven.Fetcher for entscheidsuche.ch.
type Fetcher struct {
	sourceID string
	cfg      *Config
	client   *httpclient.Client
	now      func() time.Time
}

// Verify interface compliance at compile time.
var _ driven.Fetcher = (*Fetcher)(nil)

// New creates an entscheidsuche fetcher.
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

// Kind returns domain.KindDecision.
func (f *Fetcher) Kind() domain.DocumentKind { return domain.KindDecision }

// ListCatalog returns one page of decisions after cursor.
func (f *Fetcher) ListCatalog(ctx context.Context, cursor string) (*domain.CatalogPage, error) {
	pos, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := f.client.PostJSON(ctx, f.cfg.Endpoint, f.buildQuery(pos), &resp); err != nil {
		return nil, fmt.Errorf("search decisions: %w", err)
	}

	hits := resp.Hits.Hits
	page := &domain.CatalogPage{
		Entries:    make([]domain.CatalogEntry, 0, len(hits)),
		NextCursor: cursor,
		Done:       len(hits) < f.cfg.PageSize,
	}

	for i := range hits {
		if entry, ok := f.entry(&hits[i]); ok {
			page.Entries = append(page.Entries, entry)
		}
	}
	if len(hits) > 0 {
		page.NextCursor = Cursor{Version: CursorVersion, SearchAfter: hits[len(hits)-1].Sort}.Encode()
	}

	logger.Debug("entscheidsuche: page returned %d decisions (done=%v)", len(page.Entries), page.Done)
	return page, nil
}

func (f *Fetcher) buildQuery(pos Cursor) map[string]any {
	var must []map[string]any
	if f.cfg.Canton != "" {
		must = append(must, map[string]any{"term": map[string]any{"canton": f.cfg.Canton}})
	}
	if f.cfg.Hierarchy != "" {
		must = append(must, map[string]any{"term": map[string]any{"hierarchy": f.cfg.Hierarchy}})
	}
	if f.cfg.Language != "" {
		must = append(must, map[string]any{"term": map[string]any{"attachment.language": f.cfg.Language}})
	}

	from := f.cfg.DateFrom
	if from == "" && f.cfg.SinceDays > 0 {
		from = f.now().AddDate(0, 0, -f.cfg.SinceDays).Format("2006-01-02")
	}
	if from != "" || f.cfg.DateTo != "" {
		dateRange := map[string]any{}
		if from != "" {
			dateRange["gte"] = from
		}
		if f.cfg.DateTo != "" {
			dateRange["lte"] = f.cfg.DateTo
		}
		must = append(must, map[string]any{"range": map[string]any{"date": dateRange}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	body := map[string]any{
		"query":   query,
		"size":    f.cfg.PageSize,
		"sort":    []map[string]string{{"date": "desc"}, {"_id": "asc"}},
		"_source": sourceFields,
	}
	if len(pos.SearchAfter) > 0 {
		body["search_after"] = pos.SearchAfter
	}
	return body
}

func (f *Fetcher) entry(h *hit) (domain.CatalogEntry, bool) {
	src := &h.Source
	id := src.ID
	if id == "" {
		id = h.ID
	}
	if id == "" {
		return domain.CatalogEntry{}, false
	}

	reference := id
	if len(src.Reference) > 0 && src.Reference[0] != "" {
		reference = src.Reference[0]
	}

	var chambers []string
	isATF := false
	for _, code := range src.Hierarchy {
		if strings.Contains(code, "_") && len(code) > 3 {
			chambers = append(chambers, code)
		}
		if strings.HasPrefix(code, "CH_BGE") {
			isATF = true
		}
	}
	var court, chamber string
	if len(chambers) > 0 {
		court, chamber = chambers[0], chambers[len(chambers)-1]
	}

	canton := src.Canton
	if canton == "" {
		canton = domain.JurisdictionFederal
	}

	language := src.Attachment.Language
	if language == "" {
		language = f.cfg.Language
	}

	format := domain.FormatMarkup
	if strings.HasSuffix(strings.ToLower(src.Attachment.ContentURL), ".pdf") {
		format = domain.FormatBinary
	}

	return domain.CatalogEntry{
		SourceID:  f.sourceID,
		CatalogID: id,
		Kind:      domain.KindDecision,
		Format:    format,
		Title:     src.Title.Get(language),
		URL:       src.Attachment.ContentURL,
		Metadata: map[string]string{
			"source_type":  domain.SourceTypeEntscheidsuche,
			"reference":    reference,
			"date":         src.Date,
			"canton":       canton,
			"jurisdiction": canton,
			"language":     language,
			"hierarchy":    strings.Join(src.Hierarchy, ","),
			"court":        court,
			"court_name":   courtName(court),
			"chamber":      chamber,
			"chamber_name": courtName(chamber),
			"abstract":     cleanText(src.Abstract.Get(language)),
			"is_atf":       strconv.FormatBool(isATF),
		},
	}, true
}

// FetchItem downloads the decision attachment. Decisions without an
// attachment yield an empty payload so the abstract can still be indexed.
func (f *Fetcher) FetchItem(ctx context.Context, entry domain.CatalogEntry) (*domain.RawItem, error) {
	if entry.URL == "" {
		if entry.Metadata["abstract"] == "" {
			return nil, fmt.Errorf("%w: decision %s has neither attachment nor abstract", domain.ErrNotFound, entry.CatalogID)
		}
		return &domain.RawItem{Entry: entry, FetchedAt: f.now()}, nil
	}

	resp, err := f.client.Get(ctx, entry.URL, nil)
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

func courtName(code string) string {
	if c, ok := Courts[code]; ok {
		return c.Name
	}
	return code
}
