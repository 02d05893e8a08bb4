package api_test

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type catalog struct {
	breakfast, lunch *models.Tag
	flour, milk      *models.Ingredient
}

func seedCatalog(t *testing.T, h *harness) catalog {
	t.Helper()
	return catalog{
		breakfast: testhelpers.CreateTag(t, h.db, "Breakfast", "breakfast", "#E26C2D"),
		lunch:     testhelpers.CreateTag(t, h.db, "Lunch", "lunch", "#49B64E"),
		flour:     testhelpers.CreateIngredient(t, h.db, "flour", "g"),
		milk:      testhelpers.CreateIngredient(t, h.db, "milk", "ml"),
	}
}

func recipeBody(t *testing.T, c catalog, name string) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"text":         "Mix and fry.",
		"image":        testhelpers.PNGDataURI(t),
		"cooking_time": 15,
		"tags":         []uint{c.breakfast.ID},
		"ingredients": []map[string]interface{}{
			{"id": c.flour.ID, "amount": 200},
			{"id": c.milk.ID, "amount": 300},
		},
	}
}

func (h *harness) createRecipe(token string, c catalog, name string) types.RecipeResponse {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/recipes/", recipeBody(h.t, c, name), token)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[types.RecipeResponse](h.t, w)
}

func TestRecipeCRUD(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	authorID, token := h.signup("chef@example.com", "chef")
	_, strangerToken := h.signup("stranger@example.com", "stranger")

	created := h.createRecipe(token, c, "Pancakes")
	assert.Equal(t, authorID, created.Author.ID)
	assert.Equal(t, "Pancakes", created.Name)
	require.Len(t, created.Ingredients, 2)
	assert.Equal(t, "flour", created.Ingredients[0].Name)
	assert.Equal(t, 200, created.Ingredients[0].Amount)
	assert.Regexp(t, `^/media/recipes/images/.+\.png$`, created.Image)

	path := fmt.Sprintf("/api/recipes/%d/", created.ID)

	w := h.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[types.RecipeResponse](t, w).ID)

	w = h.do(http.MethodPatch, path, map[string]interface{}{
		"name":        "Crepes",
		"ingredients": []map[string]interface{}{{"id": c.milk.ID, "amount": 500}},
		"tags":        []uint{c.lunch.ID},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[types.RecipeResponse](t, w)
	assert.Equal(t, "Crepes", patched.Name)
	assert.Equal(t, created.Image, patched.Image)
	require.Len(t, patched.Ingredients, 1)
	assert.Equal(t, 500, patched.Ingredients[0].Amount)
	require.Len(t, patched.Tags, 1)
	assert.Equal(t, "lunch", patched.Tags[0].Slug)
	assert.True(t, created.PubDate.Equal(patched.PubDate))

	w = h.do(http.MethodPut, path, map[string]interface{}{"name": "Only a name"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPatch, path, map[string]interface{}{"name": "Stolen"}, strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", decode[errorBody](t, w).Code)

	w = h.do(http.MethodDelete, path, nil, strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPatch, path, map[string]interface{}{"name": "Anonymous"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaffMayEditAnyRecipe(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")
	staffID, staffToken := h.signup("staff@example.com", "staff")
	h.makeStaff(staffID)

	recipe := h.createRecipe(token, c, "Pancakes")
	w := h.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", recipe.ID), map[string]interface{}{"cooking_time": 30}, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 30, decode[types.RecipeResponse](t, w).CookingTime)
}

func TestCreateRecipeValidation(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"no ingredients", func(b map[string]interface{}) { b["ingredients"] = []interface{}{} }, "ingredients"},
		{"duplicate ingredient", func(b map[string]interface{}) {
			b["ingredients"] = []map[string]interface{}{{"id": c.flour.ID, "amount": 1}, {"id": c.flour.ID, "amount": 2}}
		}, "ingredients"},
		{"zero amount", func(b map[string]interface{}) {
			b["ingredients"] = []map[string]interface{}{{"id": c.flour.ID, "amount": 0}}
		}, "amount"},
		{"cooking time too long", func(b map[string]interface{}) { b["cooking_time"] = 32001 }, "cooking_time"},
		{"unknown tag", func(b map[string]interface{}) { b["tags"] = []uint{999} }, "tags"},
		{"bad image", func(b map[string]interface{}) { b["image"] = "data:text/plain;base64,aGVsbG8=" }, "image"},
		{"missing name", func(b map[string]interface{}) { delete(b, "name") }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := recipeBody(t, c, "Pancakes")
			tt.mutate(body)
			w := h.do(http.MethodPost, "/api/recipes/", body, token)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[errorBody](t, w).Fields, tt.field)
		})
	}

	w := h.do(http.MethodPost, "/api/recipes/", recipeBody(t, c, "Pancakes"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/recipes/", nil, "")
	assert.Zero(t, decode[types.Page[types.RecipeResponse]](t, w).Count)
}

func TestRecipeCreationRateLimit(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.RateLimit.RecipeCreateLimit = 1 })
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")

	h.createRecipe(token, c, "One")
	w := h.do(http.MethodPost, "/api/recipes/", recipeBody(t, c, "Two"), token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "throttled", decode[errorBody](t, w).Code)
}

func TestRecipeListFilters(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	chefID, chefToken := h.signup("chef@example.com", "chef")
	_, cookToken := h.signup("cook@example.com", "cook")

	pancakes := h.createRecipe(chefToken, c, "Pancakes")
	soup := h.createRecipe(chefToken, c, "Soup")
	w := h.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", soup.ID), map[string]interface{}{"tags": []uint{c.lunch.ID}}, chefToken)
	require.Equal(t, http.StatusOK, w.Code)
	h.createRecipe(cookToken, c, "Omelette")

	list := func(query, token string) []string {
		t.Helper()
		w := h.do(http.MethodGet, "/api/recipes/"+query, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		page := decode[types.Page[types.RecipeResponse]](t, w)
		names := make([]string, len(page.Results))
		for i, r := range page.Results {
			names[i] = r.Name
		}
		return names
	}

	assert.Equal(t, []string{"Omelette", "Soup", "Pancakes"}, list("", ""))
	assert.Equal(t, []string{"Soup", "Pancakes"}, list(fmt.Sprintf("?author=%d", chefID), ""))
	assert.Equal(t, []string{"Soup"}, list("?tags=lunch", ""))
	assert.Equal(t, []string{"Omelette", "Soup", "Pancakes"}, list("?tags=lunch&tags=breakfast", ""))
	assert.Empty(t, list("?tags=dessert", ""))
	assert.Equal(t, []string{"Pancakes"}, list("?search=CAKE", ""))

	w = h.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite/", pancakes.ID), nil, cookToken)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, []string{"Pancakes"}, list("?is_favorited=1", cookToken))
	assert.Len(t, list("?is_favorited=1", ""), 3)
	assert.Len(t, list("?is_favorited=0", cookToken), 3)
	assert.Empty(t, list("?is_in_shopping_cart=1", cookToken))

	w = h.do(http.MethodGet, "/api/recipes/?is_favorited=maybe", nil, cookToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodGet, "/api/recipes/?author=chef", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/recipes/?limit=2", nil, "")
	page := decode[types.Page[types.RecipeResponse]](t, w)
	assert.Equal(t, int64(3), page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://example.com/api/recipes/?limit=2&page=2", *page.Next)

	w = h.do(http.MethodGet, "/api/recipes/?limit=2&page=3", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(http.MethodGet, "/api/recipes/?page=zero", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteAndCartToggles(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")
	recipe := h.createRecipe(token, c, "Pancakes")

	for _, marker := range []string{"favorite", "shopping_cart"} {
		t.Run(marker, func(t *testing.T) {
			path := fmt.Sprintf("/api/recipes/%d/%s/", recipe.ID, marker)

			w := h.do(http.MethodPost, path, nil, token)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			got := decode[types.RecipeResponse](t, w)
			assert.Equal(t, recipe.ID, got.ID)

			w = h.do(http.MethodPost, path, nil, token)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "conflict", decode[errorBody](t, w).Code)

			w = h.do(http.MethodDelete, path, nil, token)
			assert.Equal(t, http.StatusNoContent, w.Code)
			w = h.do(http.MethodDelete, path, nil, token)
			assert.Equal(t, http.StatusNotFound, w.Code)

			w = h.do(http.MethodPost, fmt.Sprintf("/api/recipes/9999/%s/", marker), nil, token)
			assert.Equal(t, http.StatusNotFound, w.Code)
			w = h.do(http.MethodPost, path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	w := h.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite/", recipe.ID), nil, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode[types.RecipeResponse](t, w).IsFavorited)

	w = h.do(http.MethodGet, "/api/recipes/favorites/", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	favs := decode[types.Page[types.RecipeResponse]](t, w)
	require.Len(t, favs.Results, 1)
	assert.Equal(t, recipe.ID, favs.Results[0].ID)
}

func TestDownloadShoppingCart(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")
	one := h.createRecipe(token, c, "Pancakes")
	two := h.createRecipe(token, c, "Waffles")
	for _, id := range []uint{one.ID, two.ID} {
		w := h.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", id), nil, token)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := h.do(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_list.txt")
	assert.Equal(t, strings.Join([]string{"flour — 400 g", "milk — 600 ml"}, "\n"), w.Body.String())

	w = h.do(http.MethodGet, "/api/recipes/download_shopping_cart/?format=pdf", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_list.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = h.do(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetLink(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")
	recipe := h.createRecipe(token, c, "Pancakes")

	w := h.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/", recipe.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fmt.Sprintf("https://foodgram.example/recipes/%d/", recipe.ID), decode[types.LinkResponse](t, w).URL)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/?format=qr", recipe.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = h.do(http.MethodGet, "/api/recipes/9999/get-link/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	h := newHarness(t)
	c := seedCatalog(t, h)
	testhelpers.CreateIngredient(t, h.db, "buckwheat flour", "g")

	w := h.do(http.MethodGet, "/api/tags/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	tags := decode[[]types.TagResponse](t, w)
	require.Len(t, tags, 2)
	assert.Equal(t, "breakfast", tags[0].Slug)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/tags/%d/", c.lunch.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lunch", decode[types.TagResponse](t, w).Name)

	w = h.do(http.MethodGet, "/api/ingredients/?name=FLO", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	ings := decode[[]types.IngredientResponse](t, w)
	require.Len(t, ings, 2)
	assert.Equal(t, "flour", ings[0].Name)
	assert.Equal(t, "buckwheat flour", ings[1].Name)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/ingredients/%d/", c.milk.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ml", decode[types.IngredientResponse](t, w).MeasurementUnit)

	w = h.do(http.MethodGet, "/api/tags/999/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPost, "/api/tags/", map[string]string{"name": "x"}, "")
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = h.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	h.mr.Close()
	w = h.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.API.MaxBodyBytes = 4096 })
	c := seedCatalog(t, h)
	_, token := h.signup("chef@example.com", "chef")
	h.createRecipe(token, c, "Pancakes")

	body := recipeBody(t, c, "Waffles")
	body["image"] = "data:image/png;base64," + strings.Repeat("A", 8192)
	w := h.do(http.MethodPost, "/api/recipes/", body, token)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, "payload_too_large", decode[errorBody](t, w).Code)

	var count int64
	require.NoError(t, h.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
