package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

func TestScheduleList(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "schedule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No scheduled sources.")

	ts.scheduler.jobs = []driving.ScheduledSource{{SourceID: "bger", Spec: "0 2 * * *", Next: time.Now().Add(time.Hour)}}
	out, err = execute(t, "schedule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Scheduled sources:")
	assert.Contains(t, out, `bger  "0 2 * * *"  next:`)
}

func TestScheduleNow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.scheduler.jobs = []driving.ScheduledSource{{SourceID: "bger", Spec: "@daily"}}

	out, err := execute(t, "schedule", "now", "bger")

	require.NoError(t, err)
	assert.Equal(t, []string{"bger"}, ts.scheduler.ran)
	assert.Contains(t, out, "Job bger finished.")
}

func TestScheduleNow_Unscheduled(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "schedule", "now", "fedlex")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleCmds_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	scheduler = nil

	for _, args := range [][]string{{"schedule", "list"}, {"schedule", "run"}, {"schedule", "now", "x"}} {
		_, err := execute(t, args...)
		assert.EqualError(t, err, "scheduler not configured", "args %v", args)
	}
}
