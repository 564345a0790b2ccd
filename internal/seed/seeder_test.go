package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/testutil"
	"github.com/zaplinker/backend/internal/utm"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestSeedCreatesConsistentData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	s := NewSeederWithSeed(db, 42)

	summary, err := s.Seed(ctx, Options{Users: 2, WorkspacesPerUser: 2, NumbersPerWorkspace: 2, VisitsPerWorkspace: 20, Days: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.Equal(t, 4, summary.Workspaces)
	assert.Equal(t, 8, summary.Numbers)

	repos := repository.New(db)
	var workspaces []models.Workspace
	require.NoError(t, db.Find(&workspaces).Error)
	require.Len(t, workspaces, 4)

	for _, ws := range workspaces {
		assert.True(t, models.ValidCustomURL(ws.CustomURL), ws.CustomURL)
		assert.LessOrEqual(t, len([]rune(ws.Name)), models.MaxWorkspaceNameLength)

		events, err := repos.Analytics.CountEvents(ctx, ws.ID, repository.EventFilter{})
		require.NoError(t, err)
		assert.Equal(t, ws.AccessCount, events, "counters match history")
		assert.Equal(t, ws.AccessCount, ws.DesktopAccessCount+ws.MobileAccessCount)
		assert.LessOrEqual(t, ws.UniqueVisitorCount, ws.AccessCount)

		numbers, err := repos.Numbers.ListByWorkspace(ctx, ws.ID)
		require.NoError(t, err)
		for _, n := range numbers {
			assert.True(t, utm.ValidNumber(n.Number), n.Number)
		}
	}
}

func TestCleanRemovesSeededUsersOnly(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repos := repository.New(db)

	kept, _, err := repos.Users.Upsert(ctx, &models.User{FirebaseUID: "real-user"})
	require.NoError(t, err)

	s := NewSeederWithSeed(db, 7)
	_, err = s.SeedTest(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Clean(ctx))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, kept.ID, users[0].ID)
	assert.False(t, strings.HasPrefix(users[0].FirebaseUID, UIDPrefix))

	var workspaces int64
	require.NoError(t, db.Model(&models.Workspace{}).Count(&workspaces).Error)
	assert.Zero(t, workspaces)
}
