package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaplinker/backend/internal/database"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
	gormlogger "gorm.io/gorm/logger"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "admin.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("LOG_FILE", filepath.Join(dir, "admin.log"))

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations completed")

	db, err := database.Open("sqlite", dbPath, gormlogger.Default.LogMode(gormlogger.Silent))
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	_, _, err = users.Upsert(context.Background(), &models.User{FirebaseUID: "cli-user"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	out, err = run(t, "set-plan", "cli-user", "premium")
	require.NoError(t, err)
	assert.Contains(t, out, "moved from free to premium")

	_, err = run(t, "set-plan", "cli-user", "gold")
	assert.Error(t, err)

	_, err = run(t, "set-plan", "missing-user", "pro")
	assert.Error(t, err)

	out, err = run(t, "prune", "--days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 0 access events")
}
