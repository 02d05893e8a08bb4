package service

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags(t *testing.T) {
	env := newTestEnv(t)
	c := seedCatalog(t, env.db)

	tags, err := env.catalog.ListTags(bg)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)
	assert.Equal(t, "#49B64E", tags[1].Color)

	tag, err := env.catalog.GetTag(bg, c.lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", tag.Slug)

	_, err = env.catalog.GetTag(bg, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListIngredientsPutsPrefixMatchesFirst(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"sugar", "brown sugar", "Sugar syrup", "salt", "icing_sugar"} {
		testhelpers.CreateIngredient(t, env.db, name, "g")
	}

	got, err := env.catalog.ListIngredients(bg, "SUG")
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, ing := range got {
		names[i] = ing.Name
	}
	assert.Equal(t, []string{"Sugar syrup", "sugar", "brown sugar", "icing_sugar"}, names)

	got, err = env.catalog.ListIngredients(bg, "_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "icing_sugar", got[0].Name)

	all, err := env.catalog.ListIngredients(bg, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = env.catalog.GetIngredient(bg, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	tags := []models.Tag{{Name: "Dinner", Slug: "dinner", Color: "#8775D2"}}

	n, err := env.catalog.SeedTags(bg, tags)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = env.catalog.SeedTags(bg, []models.Tag{{Name: "Dinner", Slug: "dinner", Color: "#8775D2"}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = env.catalog.SeedIngredients(bg, []models.Ingredient{
		{Name: "salt", MeasurementUnit: "g"},
		{Name: "salt", MeasurementUnit: "pinch"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
