package sources

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// mockSourceService implements driving.SourceService for testing.
type mockSourceService struct {
	sources []driving.SourceInfo
}

func (m *mockSourceService) List() []driving.SourceInfo { return m.sources }

func (m *mockSourceService) Get(id string) (*driving.SourceInfo, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) Browse(_ context.Context, _, _ string) (*domain.CatalogPage, error) {
	return &domain.CatalogPage{}, nil
}

func (m *mockSourceService) Failures(_ context.Context, _ string) ([]domain.ItemFailure, error) {
	return nil, nil
}

func (m *mockSourceService) ClearFailures(_ context.Context, _ string) error { return nil }

func (m *mockSourceService) History(_ context.Context, _ string, _ int) ([]domain.RunRecord, error) {
	return nil, nil
}

// mockCoordinator implements driving.IngestionCoordinator for testing.
type mockCoordinator struct {
	mu       sync.Mutex
	statuses map[string]*driving.IngestStatus
	report   *domain.IngestReport
	err      error
	ingested []string
}

func (m *mockCoordinator) Ingest(_ context.Context, id string, _ driving.IngestOptions) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested = append(m.ingested, id)
	return m.report, m.err
}

func (m *mockCoordinator) IngestAll(_ context.Context, _ driving.IngestOptions) ([]domain.IngestReport, error) {
	return nil, nil
}

func (m *mockCoordinator) Status(_ context.Context, id string) (*driving.IngestStatus, error) {
	if st, ok := m.statuses[id]; ok {
		return st, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCoordinator) Sources() []string { return nil }

func testSources() []driving.SourceInfo {
	return []driving.SourceInfo{
		{ID: "fedlex", Type: "fedlex", Kind: domain.KindStatute, Workers: 4},
		{ID: "entscheidsuche-bger", Type: "entscheidsuche", Kind: domain.KindDecision, Workers: 2},
	}
}

func testCoordinator() *mockCoordinator {
	return &mockCoordinator{statuses: map[string]*driving.IngestStatus{
		"fedlex": {
			SourceID:     "fedlex",
			Cursor:       &domain.IngestionCursor{SourceID: "fedlex", Pages: 3, Fetched: 300},
			FailureCount: 5,
		},
	}}
}

func loadedView(t *testing.T, coord *mockCoordinator) *View {
	t.Helper()
	view := NewView(styles.DefaultStyles(), &mockSourceService{sources: testSources()}, coord)
	view.SetDimensions(120, 40)
	view.Update(view.Init()())
	return view
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.False(t, view.ready)
	assert.Empty(t, view.Sources())
}

func TestView_Init_LoadsSourcesAndStatus(t *testing.T) {
	view := loadedView(t, testCoordinator())

	require.Len(t, view.Sources(), 2)
	assert.NoError(t, view.Err())

	out := view.View()
	assert.Contains(t, out, "fedlex")
	assert.Contains(t, out, "3 pages, 300 items, 5 failures")
	assert.Contains(t, out, "unknown", "sources without status are marked")
}

func TestView_Init_NoService(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.Update(view.Init()())

	require.Error(t, view.Err())
	assert.Contains(t, view.View(), "source service not available")
}

func TestView_Empty(t *testing.T) {
	view := NewView(nil, &mockSourceService{}, nil)

	view.Update(view.Init()())

	assert.Contains(t, view.View(), "No sources configured.")
}

func TestView_Navigation(t *testing.T) {
	view := loadedView(t, testCoordinator())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, view.SelectedIndex())
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.SelectedIndex())
	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_Enter_SelectsSource(t *testing.T) {
	view := loadedView(t, testCoordinator())
	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.SourceSelected)
	require.True(t, ok)
	assert.Equal(t, "entscheidsuche-bger", msg.Source.ID)
}

func TestView_Ingest(t *testing.T) {
	coord := testCoordinator()
	coord.report = &domain.IngestReport{SourceID: "fedlex", Documents: 12, Chunks: 340}
	view := loadedView(t, coord)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	require.NotNil(t, cmd)
	assert.True(t, view.Ingesting("fedlex"))
	assert.Contains(t, view.View(), "ingesting...")

	// A second press while running is ignored.
	_, again := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	assert.Nil(t, again)

	_, reload := view.Update(cmd())
	assert.NotNil(t, reload)
	assert.False(t, view.Ingesting("fedlex"))
	assert.Equal(t, "fedlex: 12 documents, 340 chunks, 0 failures", view.Notice())
	assert.Equal(t, []string{"fedlex"}, coord.ingested)
}

func TestView_Ingest_Error(t *testing.T) {
	coord := testCoordinator()
	coord.err = errors.New("cursor stalled")
	view := loadedView(t, coord)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	view.Update(cmd())

	assert.Contains(t, view.Notice(), "cursor stalled")
}

func TestView_Reload(t *testing.T) {
	view := loadedView(t, testCoordinator())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	require.NotNil(t, cmd)
	assert.Contains(t, view.View(), "Loading sources...")
	view.Update(cmd())
	assert.Len(t, view.Sources(), 2)
}

func TestView_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.Update(tea.WindowSizeMsg{Width: 90, Height: 30})

	assert.True(t, view.ready)
	assert.Equal(t, 90, view.width)
}
