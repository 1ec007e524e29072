package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/jobs"
)

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("nightly-sweep", "0 6 * * *", func() {}))
	assert.Contains(t, s.JobNames(), "nightly-sweep")
}

func TestScheduler_AddJob_DuplicateName(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("sweep", "0 6 * * *", func() {}))
	err := s.AddJob("sweep", "0 7 * * *", func() {})
	assert.ErrorContains(t, err, "already exists")
}

func TestScheduler_AddJob_InvalidExpression(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	err := s.AddJob("broken", "not a cron line", func() {})
	assert.Error(t, err)
	assert.NotContains(t, s.JobNames(), "broken")
}

func TestScheduler_AddJob_FiveFieldExpressions(t *testing.T) {
	// the configured job defaults are all five-field lines
	s := jobs.NewScheduler(zap.NewNop())

	for name, expr := range map[string]string{
		"stale-prospects":     "0 6 * * *",
		"overdue-tasks":       "0 7 * * *",
		"conversion-sessions": "*/30 * * * *",
		"descriptor":          "@hourly",
	} {
		assert.NoErrorf(t, s.AddJob(name, expr, func() {}), "expression %q", expr)
	}
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "@every 10ms", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
