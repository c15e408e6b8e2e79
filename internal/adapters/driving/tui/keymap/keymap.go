// Package keymap defines keybindings for the TUI.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding of the TUI. Views match keys through it so
// the status bar hints and the behaviour cannot drift apart.
type KeyMap struct {
	// Global.
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Navigation.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding

	// Query view.
	Search    key.Binding
	NewSearch key.Binding
	Actions   key.Binding
	Answer    key.Binding

	// Evidence item actions.
	Copy key.Binding
	Open key.Binding

	// Source views.
	Ingest key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
		Back: bind("esc", "back", "esc"),

		Up:     bind("↑/k", "up", "up", "k"),
		Down:   bind("↓/j", "down", "down", "j"),
		Select: bind("enter", "select", "enter"),
		Cancel: bind("esc", "cancel", "esc"),

		Search:    bind("enter", "retrieve", "enter"),
		NewSearch: bind("n", "new question", "n"),
		Actions:   bind("enter", "actions", "enter"),
		Answer:    bind("a", "answer", "a"),

		Copy: bind("c", "copy citation", "c"),
		Open: bind("o", "open source", "o"),

		Ingest: bind("i", "ingest", "i"),
	}
}

// ShortHelp returns the hints shown while typing a question.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ResultsHelp returns the hints shown while browsing evidence.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Up, k.Copy, k.Open, k.Answer, k.Back}
}

// FullHelp returns every binding grouped for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Search, k.Back, k.Cancel},
		{k.Copy, k.Open, k.Answer, k.Ingest},
		{k.Help, k.Quit},
	}
}

// Matches reports whether keyStr triggers binding.
func Matches(keyStr string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), keyStr)
}
