package database_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	assert.NoError(t, database.HealthCheck(context.Background(), db))

	for _, table := range []string{"users", "subscriptions", "tags", "ingredients", "recipes", "recipe_tags", "recipe_ingredients", "favorites", "shopping_carts"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestUniqueIndexesTranslateToDuplicatedKey(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)

	user := testhelpers.CreateUser(t, db, "cook@example.com", "cook")
	author := testhelpers.CreateUser(t, db, "chef@example.com", "chef")

	require.NoError(t, db.Create(&models.Subscription{UserID: user.ID, AuthorID: author.ID}).Error)
	err := db.Create(&models.Subscription{UserID: user.ID, AuthorID: author.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, db.Create(&models.Ingredient{Name: "salt", MeasurementUnit: "g"}).Error)
	require.NoError(t, db.Create(&models.Ingredient{Name: "salt", MeasurementUnit: "pinch"}).Error)
	err = db.Create(&models.Ingredient{Name: "salt", MeasurementUnit: "g"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPostgresMigrations(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	// second run is a no-op
	require.NoError(t, database.RunMigrations(db))

	var applied int64
	require.NoError(t, db.Table("migrations").Count(&applied).Error)
	assert.Equal(t, int64(2), applied)

	user := testhelpers.CreateUser(t, db, "pg@example.com", "pg")
	err := db.Create(&models.Subscription{UserID: user.ID, AuthorID: user.ID}).Error
	assert.Error(t, err, "self subscription must violate the check constraint")
}

func TestNewRedisClient(t *testing.T) {
	mr := testhelpers.NewMiniredis(t)

	client, err := database.NewRedisClient(config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	_, err = database.NewRedisClient(config.RedisConfig{URL: "://bad"})
	assert.Error(t, err)
}
