package services_test

import (
	"testing"
	"time"

	"taskbot/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps the in-memory database alive across queries.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TaskList{},
		&models.SharedAccess{},
		&models.Task{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, externalID int64, username, firstName string) *models.User {
	t.Helper()

	user := &models.User{
		ExternalID: externalID,
		Username:   username,
		FirstName:  firstName,
		Status:     models.UserStatusWhitelisted,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func timePtr(t time.Time) *time.Time {
	return &t
}
