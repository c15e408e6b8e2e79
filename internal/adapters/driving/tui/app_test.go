package tui

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

func newTestPorts() *Ports {
	return &Ports{
		Retriever: &MockRetriever{},
		Answerer:  &MockAnswerer{},
		Source:    &MockSourceService{Sources: []driving.SourceInfo{{ID: "fedlex", Kind: domain.KindStatute}}},
		Ingest:    &MockIngestionCoordinator{},
		Document: &MockDocumentService{
			Documents: []domain.LegalDocument{{ID: "doc-1", Origin: "fedlex", Reference: "SR 220", Title: "Obligationenrecht"}},
			Chunks:    []domain.Chunk{{ID: "c1", DocumentID: "doc-1", Citation: "Art. 1 OR", Role: domain.RoleArticle, Text: "Vertrag"}},
		},
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func grounded() *domain.Retrieval {
	return &domain.Retrieval{
		Verdict:  domain.VerdictGrounded,
		TopScore: 0.82,
		Evidence: &domain.EvidenceBundle{
			Query:     "Vertragsabschluss",
			MaxScore:  0.82,
			Threshold: 0.35,
			Items: []domain.ScoredChunk{{
				Chunk:         domain.Chunk{ID: "c1", Citation: "Art. 1 OR", Text: "Zum Abschlusse eines Vertrages..."},
				DocumentTitle: "Obligationenrecht",
				Score:         0.82,
			}},
		},
	}
}

// drain runs cmd and feeds its message back into app, following one level of batching.
func drain(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drain(app, c)
		}
		return
	}
	if msg != nil {
		app.Update(msg)
	}
}

func typeText(app *App, s string) {
	for _, r := range s {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Source: &MockSourceService{}})

	assert.ErrorIs(t, err, ErrMissingRetriever)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "lexgate")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(messages.Quit{})
	require.NotNil(t, cmd)

	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_AskFlow_Grounded(t *testing.T) {
	var gotQuery string
	ports := newTestPorts()
	ports.Retriever = &MockRetriever{
		RetrieveFunc: func(_ context.Context, q string, _ domain.RetrievalFilter) (*domain.Retrieval, error) {
			gotQuery = q
			return grounded(), nil
		},
	}
	app := newTestApp(t, ports)

	app.Update(messages.ViewChanged{View: messages.ViewSearch})
	require.Equal(t, messages.ViewSearch, app.CurrentView())

	typeText(app, "Vertrag")
	assert.Equal(t, "Vertrag", app.Query())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(app, cmd)

	assert.Equal(t, "Vertrag", gotQuery)
	require.NotNil(t, app.Retrieval())
	assert.True(t, app.Retrieval().Grounded())
	assert.Len(t, app.Evidence(), 1)
	assert.Contains(t, app.View(), "Art. 1 OR")
}

func TestApp_AskFlow_Ungrounded(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.RetrieveCompleted{
		Query:     "Wetter morgen",
		Retrieval: &domain.Retrieval{Verdict: domain.VerdictUngrounded, TopScore: 0.12},
	})

	require.NotNil(t, app.Retrieval())
	assert.False(t, app.Retrieval().Grounded())
	assert.Empty(t, app.Evidence())
}

func TestApp_RetrieveError(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.RetrieveCompleted{Query: "q", Err: errors.New("embedding failed")})

	assert.EqualError(t, app.Err(), "embedding failed")
}

func TestApp_ViewChangedToSearchResets(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewSearch})
	typeText(app, "abc")

	app.Update(messages.ViewChanged{View: messages.ViewMenu})
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	assert.Empty(t, app.Query())
}

func TestApp_EscFromSourcesAndHelp(t *testing.T) {
	for _, view := range []messages.ViewType{messages.ViewSources, messages.ViewHelp} {
		t.Run(view.String(), func(t *testing.T) {
			app := newTestApp(t, newTestPorts())
			app.Update(messages.ViewChanged{View: view})

			_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})

			require.NotNil(t, cmd, "returning to the menu refreshes corpus counts")
			assert.IsType(t, messages.CorpusStatsLoaded{}, cmd())
			assert.Equal(t, messages.ViewMenu, app.CurrentView())
		})
	}
}

func TestApp_CorpusStatsReachMenu(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.CorpusStatsLoaded{Stats: &driving.CorpusStats{Chunks: 40, Embedded: 40}})

	require.NotNil(t, app.menuView.Stats())
	assert.Contains(t, app.View(), "40 chunks, 40 embedded")
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	out := app.View()

	assert.Contains(t, out, "Copy citation")
	assert.Contains(t, out, "relevance threshold")
}

func TestApp_SourcesToDocumentsNavigation(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSources})
	drain(app, cmd)
	assert.Contains(t, app.View(), "fedlex")

	// Selecting from the list opens the detail view.
	_, cmd = app.Update(messages.SourceSelected{Source: driving.SourceInfo{ID: "fedlex"}})
	assert.Equal(t, messages.ViewSourceDetail, app.CurrentView())
	require.NotNil(t, app.SelectedSource())
	drain(app, cmd)

	// Selecting again from the detail view opens its documents.
	_, cmd = app.Update(messages.SourceSelected{Source: driving.SourceInfo{ID: "fedlex"}})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	drain(app, cmd)
	assert.Contains(t, app.View(), "SR 220")

	_, cmd = app.Update(messages.DocumentSelected{Document: domain.LegalDocument{ID: "doc-1", Reference: "SR 220"}})
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	require.NotNil(t, app.SelectedDocument())
	drain(app, cmd)
	assert.Contains(t, app.View(), "Art. 1 OR")
}

func TestApp_DocumentDetailsLoaded(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.DocumentDetailsLoaded{
		DocumentID: "doc-1",
		Details:    &driving.DocumentDetails{ID: "doc-1", Reference: "BGE 150 IV 1"},
	})

	assert.Equal(t, messages.ViewDocDetails, app.CurrentView())
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "BGE 150 IV 1")
}

func TestApp_IngestCompletedReachesBothSourceViews(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.SourceSelected{Source: driving.SourceInfo{ID: "fedlex"}})

	_, cmd := app.Update(messages.IngestCompleted{
		SourceID: "fedlex",
		Report:   &domain.IngestReport{SourceID: "fedlex", Documents: 2, Chunks: 9},
	})

	assert.NotNil(t, cmd)
	assert.Contains(t, app.sourcesView.Notice(), "2 documents")
	assert.Contains(t, app.sourceDetailView.Notice(), "Ingested 2 documents")
}

func TestApp_ActionCompletedRecordsError(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.ActionCompleted{Action: "open", Err: errors.New("no browser")})

	assert.EqualError(t, app.Err(), "no browser")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_ViewForEveryViewType(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	for v := messages.ViewMenu; v <= messages.ViewDocDetails; v++ {
		app.currentView = v
		assert.NotEmpty(t, app.View(), v.String())
	}
}
