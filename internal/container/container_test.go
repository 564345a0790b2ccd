package container

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaplinker/backend/internal/events"
	"github.com/zaplinker/backend/internal/jobs"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/queue"
	"github.com/zaplinker/backend/internal/testutil"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestValidateReportsMissingDependencies(t *testing.T) {
	err := New().Validate()

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.ElementsMatch(t, []string{"database (DB)", "analytics queue", "scheduler"}, initErr.MissingDeps)
}

func TestValidateWithDependencies(t *testing.T) {
	c := New().
		SetDB(testutil.NewSQLiteDB(t)).
		SetAnalyticsQueue(queue.NewAnalyticsQueue(1, 1, func(context.Context, *queue.AccessJob) error { return nil })).
		SetScheduler(jobs.NewScheduler())

	assert.NoError(t, c.Validate())
	assert.NotNil(t, c.Repositories())
	assert.Nil(t, c.Cache())
	assert.IsType(t, events.NoopPublisher{}, c.Publisher())
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	c := New().
		OnCleanup("database", func(context.Context) error { order = append(order, "database"); return nil }).
		OnCleanup("queue", func(context.Context) error { order = append(order, "queue"); return boom }).
		OnCleanup("server", func(context.Context) error { order = append(order, "server"); return nil })

	err := c.Cleanup(context.Background())
	assert.Equal(t, []string{"server", "queue", "database"}, order)
	assert.ErrorIs(t, err, boom)

	var cleanupErr *CleanupError
	require.ErrorAs(t, err, &cleanupErr)
	assert.Equal(t, "queue", cleanupErr.Step)

	// A second call has nothing left to run
	assert.NoError(t, c.Cleanup(context.Background()))
	assert.Len(t, order, 3)
}
