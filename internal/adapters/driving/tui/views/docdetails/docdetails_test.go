package docdetails

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

func testDetails() *driving.DocumentDetails {
	return &driving.DocumentDetails{
		ID:            "doc-1",
		Origin:        "bger",
		ExternalID:    "6B_1234/2023",
		Kind:          domain.KindDecision,
		Title:         "Urteil vom 12. März 2024",
		Reference:     "BGE 150 IV 1",
		LegalDomain:   domain.DomainPenal,
		URL:           "https://www.bger.ch/ext/eurospider/live/de/php/clir/http/index.php",
		ChunkCount:    4,
		EmbeddedCount: 3,
		Citations:     []string{"BGE 150 IV 1, Regeste", "BGE 150 IV 1, E. 2.1"},
		PublishedAt:   time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Metadata:      map[string]string{"chamber": "Strafrechtliche Abteilung", "language": "de"},
	}
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.False(t, view.ready)
	assert.Nil(t, view.Details())
}

func TestView_SetDetails(t *testing.T) {
	view := NewView(nil)
	view.scrollOffset = 3
	view.SetError(errors.New("old"))

	view.SetDetails(testDetails())

	assert.Equal(t, "doc-1", view.Details().ID)
	assert.Equal(t, 0, view.scrollOffset)
	assert.NoError(t, view.Err())
}

func TestView_DetailsLoadedMessage(t *testing.T) {
	view := NewView(nil)

	view.Update(messages.DocumentDetailsLoaded{DocumentID: "doc-1", Details: testDetails()})
	require.NotNil(t, view.Details())

	view.Update(messages.DocumentDetailsLoaded{DocumentID: "doc-1", Err: domain.ErrNotFound})
	assert.ErrorIs(t, view.Err(), domain.ErrNotFound)
}

func TestView_Render(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 40)
	view.SetDetails(testDetails())

	out := view.View()

	assert.Contains(t, out, "Document Details")
	assert.Contains(t, out, "BGE 150 IV 1")
	assert.Contains(t, out, "4 (3 embedded)")
	assert.Contains(t, out, "2024-03-12")
	assert.Contains(t, out, "chamber")
	assert.Contains(t, out, "E. 2.1")
}

func TestView_RenderEmptyAndError(t *testing.T) {
	view := NewView(nil)
	assert.Contains(t, view.View(), "No document details available")

	view.SetError(errors.New("boom"))
	assert.Contains(t, view.View(), "Error: boom")
}

func TestView_Scroll(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 8)
	view.SetDetails(testDetails())

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.scrollOffset)

	for range 50 {
		view.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, view.maxScrollOffset(), view.scrollOffset)
	assert.Positive(t, view.scrollOffset)
	assert.Contains(t, view.View(), "[Line")
}

func TestView_NarrowWidth(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(2, 10)

	assert.NotPanics(t, func() { _ = view.View() })
}

func TestView_EscGoesBack(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}
