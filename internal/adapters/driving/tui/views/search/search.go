// Package search provides the query and evidence view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Action labels of the evidence menu.
const (
	actionCopy   = "Copy citation"
	actionOpen   = "Open source"
	actionCancel = "Cancel"
)

// ActionMenu represents a simple action selection overlay.
type ActionMenu struct {
	actions  []string
	selected int
	visible  bool
	item     *domain.ScoredChunk
}

// View represents the query view with input, evidence list and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.EvidenceList
	statusbar *status.Bar

	retriever driving.Retriever
	answerer  driving.Answerer
	actions   driving.EvidenceActions
	ctx       context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = input mode (typing), false = evidence mode (navigating)
	actionMenu *ActionMenu

	query     string
	retrieval *domain.Retrieval
	answer    *domain.Answer
}

// NewView creates a new query view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retriever driving.Retriever,
	answerer driving.Answerer,
	actions driving.EvidenceActions,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewEvidenceList(s),
		statusbar:  status.NewBar(s, km),
		retriever:  retriever,
		answerer:   answerer,
		actions:    actions,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the query view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RetrieveCompleted:
		v.handleRetrieveCompleted(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var inputCmd tea.Cmd
	v.input, inputCmd = v.input.Update(msg)
	if inputCmd != nil {
		cmds = append(cmds, inputCmd)
	}

	var listCmd tea.Cmd
	v.list, listCmd = v.list.Update(msg)
	if listCmd != nil {
		cmds = append(cmds, listCmd)
	}

	return v, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.actionMenu != nil && v.actionMenu.visible {
		return v.handleActionMenuKey(msg)
	}

	// Esc always signals to go back to menu
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if msg.Type == tea.KeyEnter && v.focusInput {
		query, ok := v.input.Submit()
		if !ok {
			return v, nil
		}
		v.statusbar.SetState(status.StateRetrieving)
		v.statusbar.SetMessage("")
		v.focusInput = false
		v.input.Blur()
		return v, v.performRetrieve(query)
	}

	// Input mode: all keys go to input
	if v.focusInput {
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		if item := v.list.SelectedItem(); item != nil {
			v.actionMenu = &ActionMenu{
				actions:  []string{actionCopy, actionOpen, actionCancel},
				selected: 0,
				visible:  true,
				item:     item,
			}
		}
		return v, nil
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.list.MoveUp()
		return v, nil
	case tea.KeyDown:
		v.list.MoveDown()
		return v, nil
	}

	km, pressed := v.keymap, msg.String()
	switch {
	case keymap.Matches(pressed, km.Up):
		v.list.MoveUp()
	case keymap.Matches(pressed, km.Down):
		v.list.MoveDown()
	case keymap.Matches(pressed, km.Copy):
		return v.executeAction(actionCopy, v.list.SelectedItem())
	case keymap.Matches(pressed, km.Open):
		return v.executeAction(actionOpen, v.list.SelectedItem())
	case keymap.Matches(pressed, km.Answer):
		return v, v.requestAnswer()
	case keymap.Matches(pressed, km.NewSearch):
		v.focusInput = true
		v.input.Focus()
		v.input.SetValue("")
	}

	return v, nil
}

// handleActionMenuKey processes keyboard input when action menu is visible.
func (v *View) handleActionMenuKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.moveAction(-1)
		return v, nil
	case tea.KeyDown:
		v.moveAction(1)
		return v, nil
	case tea.KeyEnter:
		action := v.actionMenu.actions[v.actionMenu.selected]
		item := v.actionMenu.item
		v.actionMenu = nil
		return v.executeAction(action, item)
	case tea.KeyEsc:
		v.actionMenu = nil
		return v, nil
	default:
	}

	switch msg.String() {
	case "k":
		v.moveAction(-1)
	case "j":
		v.moveAction(1)
	}
	return v, nil
}

func (v *View) moveAction(delta int) {
	next := v.actionMenu.selected + delta
	if next >= 0 && next < len(v.actionMenu.actions) {
		v.actionMenu.selected = next
	}
}

// executeAction performs the selected action on an evidence item.
func (v *View) executeAction(action string, item *domain.ScoredChunk) (*View, tea.Cmd) {
	if item == nil {
		return v, nil
	}

	switch action {
	case actionCopy:
		if v.actions == nil {
			v.statusbar.SetMessage("Copy not available")
			break
		}
		if err := v.actions.CopyCitation(item); err != nil {
			v.statusbar.SetMessage("Copy: " + err.Error())
		} else {
			v.statusbar.SetMessage("Citation copied to clipboard")
		}
	case actionOpen:
		if v.actions == nil {
			v.statusbar.SetMessage("Open not available")
			break
		}
		if err := v.actions.OpenSource(item); err != nil {
			v.statusbar.SetMessage("Open: " + err.Error())
		} else {
			v.statusbar.SetMessage("Opening source...")
		}
	case actionCancel:
	}

	return v, nil
}

// performRetrieve runs the grounding gate for query.
func (v *View) performRetrieve(query string) tea.Cmd {
	return func() tea.Msg {
		if v.retriever == nil {
			return messages.ErrorOccurred{Err: ErrNoRetriever}
		}

		retrieval, err := v.retriever.Retrieve(v.ctx, query, domain.RetrievalFilter{})
		return messages.RetrieveCompleted{Query: query, Retrieval: retrieval, Err: err}
	}
}

// requestAnswer generates an answer for the current query.
func (v *View) requestAnswer() tea.Cmd {
	if v.query == "" {
		return nil
	}
	if v.answerer == nil {
		v.statusbar.SetMessage(ErrNoAnswerer.Error())
		return nil
	}

	query := v.query
	v.statusbar.SetState(status.StateAnswering)
	return func() tea.Msg {
		answer, err := v.answerer.Answer(v.ctx, query, domain.RetrievalFilter{})
		return messages.AnswerCompleted{Query: query, Answer: answer, Err: err}
	}
}

// handleRetrieveCompleted processes a retrieval.
func (v *View) handleRetrieveCompleted(msg messages.RetrieveCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.query = msg.Query
	v.retrieval = msg.Retrieval
	v.answer = nil
	v.focusInput = false
	v.input.Blur()

	if msg.Retrieval == nil || !msg.Retrieval.Grounded() {
		v.list.SetItems(nil)
		v.statusbar.SetState(status.StateUngrounded)
		v.statusbar.SetResultCount(0)
		if msg.Retrieval != nil {
			v.statusbar.SetScores(msg.Retrieval.TopScore, v.threshold())
		}
		return
	}

	v.list.SetThreshold(msg.Retrieval.Evidence.Threshold)
	v.list.SetItems(msg.Retrieval.Evidence.Items)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Retrieval.Evidence.Items))
	v.statusbar.SetScores(msg.Retrieval.Evidence.MaxScore, msg.Retrieval.Evidence.Threshold)
}

// handleAnswerCompleted processes a gated answer.
func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Query != v.query {
		return // stale
	}

	v.answer = msg.Answer
	switch {
	case msg.Answer == nil:
		v.statusbar.SetState(status.StateResults)
	case msg.Answer.Refused:
		v.statusbar.SetState(status.StateUngrounded)
	default:
		v.statusbar.SetState(status.StateResults)
		switch {
		case msg.Answer.Flagged && len(msg.Answer.Citations) == 0:
			v.statusbar.SetMessage("Answer cites no sources")
		case msg.Answer.Flagged:
			v.statusbar.SetMessage("Answer cites unverified sources")
		}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)

	header := v.styles.Title.Render("lexgate")
	sections = append(sections, header, "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.retrieval != nil && !v.retrieval.Grounded() {
		sections = append(sections,
			v.styles.Refused.Render("No reliable legal source matches this query."),
			v.styles.Muted.Render(fmt.Sprintf("Best score %.2f, threshold %.2f", v.retrieval.TopScore, v.threshold())),
		)
	} else {
		sections = append(sections, v.list.View())
	}

	if v.answer != nil {
		sections = append(sections, "", v.renderAnswer())
	}

	if v.actionMenu != nil && v.actionMenu.visible {
		sections = append(sections, "", v.renderActionMenu())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) threshold() float64 {
	if v.retriever == nil {
		return 0
	}
	return v.retriever.Threshold()
}

// renderAnswer renders the answer with its citation checks.
func (v *View) renderAnswer() string {
	lines := []string{v.styles.Subtitle.Render("Answer"), v.styles.Normal.Render(v.answer.Text)}
	for _, c := range v.answer.Citations {
		mark := v.styles.Verified.Render("verified")
		if !c.Verified {
			mark = v.styles.Unverified.Render("unverified")
		}
		lines = append(lines, "  "+v.styles.Citation.Render(c.Reference)+"  "+mark)
	}
	return strings.Join(lines, "\n")
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	if v.actionMenu == nil {
		return ""
	}

	lines := make([]string, 0, len(v.actionMenu.actions))
	for i, action := range v.actionMenu.actions {
		if i == v.actionMenu.selected {
			lines = append(lines, v.styles.Selected.Render("> "+action))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+action))
		}
	}

	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // Reserve space for header, input, status
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current input value.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the input value.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Retrieval returns the last retrieval, nil before the first query.
func (v *View) Retrieval() *domain.Retrieval {
	return v.retrieval
}

// Answer returns the last answer, nil until one was requested.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Evidence returns the evidence items currently listed.
func (v *View) Evidence() []domain.ScoredChunk {
	return v.list.Items()
}

// SelectedIndex returns the index of the selected evidence item.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedItem returns the currently selected evidence item.
func (v *View) SelectedItem() *domain.ScoredChunk {
	return v.list.SelectedItem()
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Reset resets the view to initial input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetItems(nil)
	v.err = nil
	v.query = ""
	v.retrieval = nil
	v.answer = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
