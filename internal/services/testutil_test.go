package services

import (
	"fmt"
	"testing"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/database"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB returns a migrated in-memory database. Each test gets its own
// so unique-index state never leaks between tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func fmtName(prefix string, i, j int) string {
	return fmt.Sprintf("%s-%d-%d", prefix, i, j)
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestPoll(t *testing.T, db *gorm.DB, creatorID uint, published bool, options ...string) *models.Poll {
	t.Helper()

	poll := models.Poll{
		Question:    "What should we have for lunch?",
		IsPublished: published,
		CreatorID:   creatorID,
	}
	for _, text := range options {
		poll.Options = append(poll.Options, models.Option{Text: text})
	}
	require.NoError(t, db.Create(&poll).Error)
	return &poll
}
