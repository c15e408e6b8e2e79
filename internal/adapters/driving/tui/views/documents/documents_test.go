package documents

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs    []domain.LegalDocument
	listErr error
	details *driving.DocumentDetails
	origins []string
}

func (m *mockDocumentService) ListByOrigin(_ context.Context, origin string) ([]domain.LegalDocument, error) {
	m.origins = append(m.origins, origin)
	return m.docs, m.listErr
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.LegalDocument, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	if m.details == nil {
		return nil, domain.ErrNotFound
	}
	return m.details, nil
}

func (m *mockDocumentService) Stats(_ context.Context) (*driving.CorpusStats, error) {
	return &driving.CorpusStats{}, nil
}

// mockActions implements driving.EvidenceActions for testing.
type mockActions struct {
	opened []string
}

func (m *mockActions) CopyCitation(_ *domain.ScoredChunk) error { return nil }

func (m *mockActions) OpenSource(item *domain.ScoredChunk) error {
	m.opened = append(m.opened, item.Chunk.URL)
	return nil
}

func testDocuments() []domain.LegalDocument {
	return []domain.LegalDocument{
		{ID: "doc-1", Origin: "fedlex", Reference: "SR 220", Title: "Obligationenrecht", Jurisdiction: "CH", LegalDomain: domain.DomainCivil, URL: "https://www.fedlex.admin.ch/eli/cc/27/317_321_377"},
		{ID: "doc-2", Origin: "fedlex", Reference: "SR 210", Title: "Zivilgesetzbuch", Jurisdiction: "CH", LegalDomain: domain.DomainCivil, URL: "https://www.fedlex.admin.ch/eli/cc/24/233_245_233"},
	}
}

func loaded(t *testing.T, svc *mockDocumentService) *View {
	t.Helper()
	view := NewView(nil, svc, &mockActions{})
	cmd := view.SetSource(driving.SourceInfo{ID: "fedlex"})
	require.NotNil(t, cmd)
	view.Update(cmd())
	return view
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Empty(t, view.Documents())
	assert.Nil(t, view.SelectedDocument())
}

func TestView_SetSource_LoadsDocuments(t *testing.T) {
	svc := &mockDocumentService{docs: testDocuments()}
	view := loaded(t, svc)

	assert.Equal(t, []string{"fedlex"}, svc.origins)
	assert.Len(t, view.Documents(), 2)
	assert.NoError(t, view.Err())
	assert.Contains(t, view.View(), "SR 220")
	assert.Contains(t, view.View(), "Obligationenrecht")
}

func TestView_SetSource_NoService(t *testing.T) {
	view := NewView(nil, nil, nil)
	cmd := view.SetSource(driving.SourceInfo{ID: "fedlex"})

	msg := cmd()
	view.Update(msg)

	assert.Error(t, view.Err())
	assert.Contains(t, view.View(), "Error:")
}

func TestView_LoadError(t *testing.T) {
	view := loaded(t, &mockDocumentService{listErr: errors.New("db closed")})

	assert.EqualError(t, view.Err(), "db closed")
}

func TestView_Empty(t *testing.T) {
	view := loaded(t, &mockDocumentService{})

	assert.Contains(t, view.View(), "No documents ingested")
}

func TestView_Navigation(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	view.Update(key("down"))
	assert.Equal(t, 1, view.SelectedIndex())

	view.Update(key("down"))
	assert.Equal(t, 1, view.SelectedIndex())

	view.Update(key("k"))
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_ShowContent(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	view.Update(key("enter"))
	require.True(t, view.IsShowingMenu())
	assert.Contains(t, view.View(), "Show Chunks")

	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, view.IsShowingMenu())

	sel, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "doc-1", sel.Document.ID)
}

func TestView_ShowDetails(t *testing.T) {
	svc := &mockDocumentService{
		docs:    testDocuments(),
		details: &driving.DocumentDetails{ID: "doc-1", Reference: "SR 220"},
	}
	view := loaded(t, svc)

	view.Update(key("enter"))
	view.Update(key("down"))
	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.DocumentDetailsLoaded)
	require.True(t, ok)
	assert.Equal(t, "doc-1", msg.DocumentID)
	require.NoError(t, msg.Err)
	assert.Equal(t, "SR 220", msg.Details.Reference)
}

func TestView_OpenSource(t *testing.T) {
	actions := &mockActions{}
	view := NewView(nil, &mockDocumentService{docs: testDocuments()}, actions)
	view.Update(view.SetSource(driving.SourceInfo{ID: "fedlex"})())

	view.Update(key("down"))
	view.Update(key("enter"))
	view.Update(key("down"))
	view.Update(key("down"))
	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.ActionCompleted)
	require.True(t, ok)
	assert.NoError(t, msg.Err)
	assert.Equal(t, []string{"https://www.fedlex.admin.ch/eli/cc/24/233_245_233"}, actions.opened)
}

func TestView_MenuCancel(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	view.Update(key("enter"))
	_, cmd := view.Update(key("esc"))

	assert.Nil(t, cmd)
	assert.False(t, view.IsShowingMenu())
}

func TestView_EscGoesBack(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	_, cmd := view.Update(key("esc"))
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewSourceDetail}, cmd())
}

func TestView_Reload(t *testing.T) {
	svc := &mockDocumentService{docs: testDocuments()}
	view := loaded(t, svc)

	_, cmd := view.Update(key("r"))
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.Len(t, svc.origins, 2)
}

func TestView_ScrollIndicator(t *testing.T) {
	docs := make([]domain.LegalDocument, 30)
	for i := range docs {
		docs[i] = domain.LegalDocument{ID: "d", Reference: "SR 1", Title: "T"}
	}
	view := loaded(t, &mockDocumentService{docs: docs})
	view.SetDimensions(80, 12)

	for range 10 {
		view.Update(key("j"))
	}

	assert.Equal(t, 10, view.SelectedIndex())
	assert.Contains(t, view.View(), "of 30]")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Bundesg...", truncate("Bundesgesetz", 10))
	assert.Equal(t, "Zürich ...", truncate("Zürich Obergericht", 10))
}

func typeFilter(view *View, text string) {
	view.Update(key("/"))
	for _, r := range text {
		view.Update(key(string(r)))
	}
}

func TestView_FilterNarrowsList(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "zivil")
	assert.True(t, view.IsFiltering())
	assert.Equal(t, "zivil", view.Filter())

	view.Update(key("enter"))
	assert.False(t, view.IsFiltering())

	doc := view.SelectedDocument()
	require.NotNil(t, doc)
	assert.Equal(t, "doc-2", doc.ID)

	out := view.View()
	assert.Contains(t, out, "(1 of 2)")
	assert.Contains(t, out, "Zivilgesetzbuch")
	assert.NotContains(t, out, "Obligationenrecht")
}

func TestView_FilterMatchesReference(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "SR 220")
	view.Update(key("enter"))

	doc := view.SelectedDocument()
	require.NotNil(t, doc)
	assert.Equal(t, "doc-1", doc.ID)
}

func TestView_FilterNoMatch(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "strafrecht")
	view.Update(key("enter"))

	assert.Nil(t, view.SelectedDocument())
	assert.Contains(t, view.View(), `No documents match "strafrecht"`)

	// Enter on an empty result opens no menu.
	view.Update(key("enter"))
	assert.False(t, view.IsShowingMenu())
}

func TestView_FilterBackspace(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "zü")
	view.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "z", view.Filter())
}

func TestView_EscClearsFilterBeforeLeaving(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "obligationen")
	view.Update(key("enter"))

	_, cmd := view.Update(key("esc"))
	assert.Nil(t, cmd)
	assert.Empty(t, view.Filter())
	assert.Len(t, view.visible(), 2)

	_, cmd = view.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSourceDetail}, cmd())
}

func TestView_EscWhileEditingDropsFilter(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "zivil")
	_, cmd := view.Update(key("esc"))

	assert.Nil(t, cmd)
	assert.False(t, view.IsFiltering())
	assert.Empty(t, view.Filter())
}

func TestView_FilteredSelectionOpensMatchingDocument(t *testing.T) {
	view := loaded(t, &mockDocumentService{docs: testDocuments()})

	typeFilter(view, "zivil")
	view.Update(key("enter"))
	view.Update(key("enter"))
	require.True(t, view.IsShowingMenu())

	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "doc-2", msg.Document.ID)
}

func TestView_RendersJurisdictionAndDomain(t *testing.T) {
	docs := []domain.LegalDocument{
		{ID: "zh-1", Reference: "LS 211.1", Title: "Einführungsgesetz", Jurisdiction: "ZH", LegalDomain: domain.DomainCivil},
		{ID: "zh-2", Reference: "LS 131.1", Title: "Gemeindegesetz", Jurisdiction: "ZH", LegalDomain: domain.DomainPublic},
	}
	view := loaded(t, &mockDocumentService{docs: docs})

	out := view.View()
	assert.Contains(t, out, "ZH")
	assert.Contains(t, out, "public")

	typeFilter(view, "public")
	view.Update(key("enter"))
	doc := view.SelectedDocument()
	require.NotNil(t, doc)
	assert.Equal(t, "zh-2", doc.ID)
}
