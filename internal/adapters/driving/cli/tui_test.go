package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui"
)

// stubProgram replaces runProgram for the duration of a test.
func stubProgram(t *testing.T, fn func(m tea.Model, ctx context.Context) error) {
	t.Helper()
	original := runProgram
	runProgram = fn
	t.Cleanup(func() { runProgram = original })
}

func TestTUICmd_Registered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == "tui" {
			found = true
			break
		}
	}
	assert.True(t, found, "tui command should be registered")
	assert.Equal(t, "Launch the interactive terminal UI", tuiCmd.Short)
	assert.Contains(t, tuiCmd.Long, "Controls:")
}

func TestTUICmd_RunsApp(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	var model tea.Model
	stubProgram(t, func(m tea.Model, _ context.Context) error {
		model = m
		return nil
	})

	_, err := execute(t, "tui")

	require.NoError(t, err)
	app, ok := model.(*tui.App)
	require.True(t, ok)
	assert.NotNil(t, app)
}

func TestTUICmd_MissingRetriever(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	retriever = nil
	stubProgram(t, func(tea.Model, context.Context) error { return nil })

	_, err := execute(t, "tui")

	require.Error(t, err)
	assert.ErrorIs(t, err, tui.ErrMissingRetriever)
}

func TestTUICmd_ProgramError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	stubProgram(t, func(tea.Model, context.Context) error { return errors.New("no tty") })

	_, err := execute(t, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI error: no tty")
}

func TestTUICmd_WithScheduler(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.scheduler.started = make(chan struct{})

	stubProgram(t, func(tea.Model, context.Context) error {
		select {
		case <-ts.scheduler.started:
		case <-time.After(time.Second):
			return errors.New("scheduler did not start")
		}
		return nil
	})

	_, err := execute(t, "tui", "--with-scheduler")

	require.NoError(t, err)
	assert.True(t, ts.scheduler.stopped)
}

func TestTUICmd_WithSchedulerNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	scheduler = nil

	_, err := execute(t, "tui", "--with-scheduler")

	assert.EqualError(t, err, "scheduler not configured")
}
