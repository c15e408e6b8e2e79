package cantonal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/connectors/httpclient"
	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func TestCatalog_Integrity(t *testing.T) {
	seen := make(map[string]bool)
	for _, l := range append(append([]Law{}, TaxLaws...), Circulars...) {
		assert.False(t, seen[l.Code], "duplicate code %s", l.Code)
		seen[l.Code] = true
		assert.NotEmpty(t, l.URL, l.Code)
		assert.NotEmpty(t, l.Name, l.Code)
		if l.Mode == ModeHTML {
			assert.NotEmpty(t, l.Selector, l.Code)
		}
		assert.True(t, domain.LegalDomain(l.LegalDomain).IsValid(), l.Code)
	}
	assert.Len(t, TaxLaws, 26)
}

func TestParseConfig(t *testing.T) {
	t.Run("selects cantons", func(t *testing.T) {
		cfg, err := ParseConfig(domain.SourceConfig{Filters: map[string]string{"cantons": "ge, vd"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"GE", "VD"}, cfg.Cantons)
		assert.False(t, cfg.Circulars)
	})

	t.Run("unknown canton", func(t *testing.T) {
		_, err := ParseConfig(domain.SourceConfig{Filters: map[string]string{"cantons": "XX"}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestFetcher_ListCatalog(t *testing.T) {
	cfg, err := ParseConfig(domain.SourceConfig{Filters: map[string]string{"cantons": "GE,SZ,SH", "circulars": "true"}})
	require.NoError(t, err)
	f := New("cantonal", cfg, httpclient.New(httpclient.Config{}, nil))

	page, err := f.ListCatalog(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, page.Done)
	require.Len(t, page.Entries, 3+len(Circulars))

	ge := page.Entries[0]
	assert.Equal(t, "ge-lipp", ge.CatalogID)
	assert.Equal(t, "LIPP/GE", ge.Metadata["reference"])
	assert.Equal(t, "div.law-text, .legis-article, td.article", ge.Metadata["selector"])
	assert.Equal(t, domain.FormatMarkup, ge.Format)

	var sz domain.CatalogEntry
	for _, e := range page.Entries {
		if e.Metadata["jurisdiction"] == "SZ" {
			sz = e
		}
	}
	assert.Equal(t, domain.FormatBinary, sz.Format)

	again, err := f.ListCatalog(context.Background(), page.NextCursor)
	require.NoError(t, err)
	assert.Empty(t, again.Entries)
	assert.True(t, again.Done)
}

func TestFetcher_FetchItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Language"), "fr-CH")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<div class="law-text">Art. 1 Principe</div>`))
	}))
	defer server.Close()

	laws := []Law{
		{Code: "GE", Short: "LIPP", URL: server.URL, Jurisdiction: "GE", Mode: ModeHTML, Selector: "div.law-text"},
		{Code: "SH", Short: "StG", URL: server.URL + "/manual", Jurisdiction: "SH", Mode: ModeManual},
	}
	f := New("cantonal", &Config{Laws: laws}, httpclient.New(httpclient.Config{}, nil))

	page, err := f.ListCatalog(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)

	raw, err := f.FetchItem(context.Background(), page.Entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw.Content), "Art. 1")
	assert.Equal(t, "div.law-text", raw.Entry.Metadata["selector"])

	_, err = f.FetchItem(context.Background(), page.Entries[1])
	assert.ErrorIs(t, err, domain.ErrManualSource)
}
