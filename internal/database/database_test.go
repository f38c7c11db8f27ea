package database_test

import (
	"testing"

	"taskbot/backend/internal/config"
	"taskbot/backend/internal/database"
	"taskbot/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ":memory:"
	cfg.Database.MaxOpenConns = 1

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"users", "task_lists", "shared_accesses", "tasks"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}

	user := models.User{ExternalID: 42, Username: "alice", Status: models.UserStatusPending}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)

	// A second statement must see the same in-memory database, which only
	// holds when the pool keeps a connection alive despite the zero-valued
	// idle setting above.
	var stored models.User
	require.NoError(t, db.Where("external_id = ?", int64(42)).First(&stored).Error)
	assert.Equal(t, "alice", stored.Username)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"

	_, err := database.Connect(cfg)
	assert.Error(t, err)
}
