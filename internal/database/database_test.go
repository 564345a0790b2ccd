package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever", gormlogger.Discard)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrateSQLite(t *testing.T) {
	db, err := Open("sqlite", "file:migrate_test?mode=memory&cache=shared", gormlogger.Discard)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "workspaces", "whatsapp_numbers", "visitors", "access_events", "number_accesses"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
	assert.True(t, db.Migrator().HasIndex("visitors", "idx_visitors_workspace_key"))

	// Migrations are idempotent
	require.NoError(t, Migrate(db))
}

func TestMigrateNilDB(t *testing.T) {
	assert.Error(t, Migrate(nil))
}

func TestHealthWithoutConnection(t *testing.T) {
	saved := DB
	DB = nil
	defer func() { DB = saved }()

	assert.Error(t, Health())
	assert.NoError(t, Close())
}
