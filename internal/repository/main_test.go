package repository

import (
	"testing"

	"campingrate/internal/config"
	"campingrate/internal/database"
	"campingrate/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns an isolated in-memory database with the full schema.
// One connection keeps every query on the same in-memory instance.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), &config.Config{DBMaxOpenConns: 1, DBMaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCampground(t *testing.T, db *gorm.DB, authorID uint, title string) *models.Campground {
	t.Helper()
	cg := &models.Campground{
		Title:       title,
		Location:    "Yosemite Valley, CA",
		Latitude:    "37.7456",
		Longitude:   "-119.5936",
		Price:       25,
		Description: "Granite walls and pines",
		AuthorID:    authorID,
		Images: []models.CampgroundImage{
			{URL: "http://img/a.jpg", Filename: "campgrounds/a.jpg"},
			{URL: "http://img/b.jpg", Filename: "campgrounds/b.jpg"},
		},
	}
	require.NoError(t, NewCampgroundRepository(db).Create(t.Context(), cg))
	return cg
}
