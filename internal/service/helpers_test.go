package service

import (
	"context"
	"testing"
	"time"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	images       *LocalImageStore
	auth         *AuthService
	users        *UserService
	catalog      *CatalogService
	recipes      *RecipeService
	interactions *InteractionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	images, err := NewLocalImageStore(t.TempDir(), "/media")
	require.NoError(t, err)
	client, _ := testhelpers.NewRedisClient(t)

	recipes := NewRecipeService(db, images, "foodgram.example")
	return &testEnv{
		db:           db,
		images:       images,
		auth:         NewAuthService(db, NewRedisTokenStore(client), "test-secret", time.Hour, WithPasswordCost(bcrypt.MinCost)),
		users:        NewUserService(db, images),
		catalog:      NewCatalogService(db),
		recipes:      recipes,
		interactions: NewInteractionService(db, recipes),
	}
}

func principal(u *models.User) *types.Principal {
	return &types.Principal{UserID: u.ID, IsStaff: u.IsStaff}
}

func ptr[T any](v T) *T {
	return &v
}

// catalogFixture is two tags and three ingredients.
type catalogFixture struct {
	breakfast, lunch   *models.Tag
	flour, milk, sugar *models.Ingredient
}

func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	return catalogFixture{
		breakfast: testhelpers.CreateTag(t, db, "Breakfast", "breakfast", "#E26C2D"),
		lunch:     testhelpers.CreateTag(t, db, "Lunch", "lunch", "#49B64E"),
		flour:     testhelpers.CreateIngredient(t, db, "flour", "g"),
		milk:      testhelpers.CreateIngredient(t, db, "milk", "ml"),
		sugar:     testhelpers.CreateIngredient(t, db, "sugar", "g"),
	}
}

func validWrite(t *testing.T, c catalogFixture) types.RecipeWriteRequest {
	t.Helper()
	return types.RecipeWriteRequest{
		Name:        ptr("Pancakes"),
		Text:        ptr("Mix and fry."),
		Image:       ptr(testhelpers.PNGDataURI(t)),
		CookingTime: ptr(20),
		Tags:        []uint{c.breakfast.ID},
		Ingredients: []types.IngredientAmount{
			{ID: c.flour.ID, Amount: 200},
			{ID: c.milk.ID, Amount: 300},
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	verr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T: %v", err, err)
	return verr.Fields
}

var bg = context.Background()
