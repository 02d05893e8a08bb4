package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRecipeNameLength = 200

type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	domain string
}

func NewRecipeService(db *gorm.DB, images ImageStore, domain string) *RecipeService {
	return &RecipeService{db: db, images: images, domain: domain}
}

// recipeWrite is a validated write payload.
type recipeWrite struct {
	fields      map[string]interface{}
	image       *ImageUpload
	imageExt    string
	imageType   string
	tags        []uint
	setTags     bool
	ingredients []types.IngredientAmount
	setIngr     bool
}

func (s *RecipeService) validate(ctx context.Context, req types.RecipeWriteRequest, mode types.WriteMode) (*recipeWrite, error) {
	verr := &ValidationError{}
	w := &recipeWrite{fields: map[string]interface{}{}}
	full := mode != types.WritePatch

	required := func(field string, present bool) bool {
		if !present && full {
			verr.Add(field, "This field is required.")
		}
		return present
	}

	if required("name", req.Name != nil) {
		name := strings.TrimSpace(*req.Name)
		switch {
		case name == "":
			verr.Add("name", "This field may not be blank.")
		case utf8.RuneCountInString(name) > maxRecipeNameLength:
			verr.Add("name", "Ensure this field has no more than %d characters.", maxRecipeNameLength)
		default:
			w.fields["name"] = name
		}
	}

	if required("text", req.Text != nil) {
		if strings.TrimSpace(*req.Text) == "" {
			verr.Add("text", "This field may not be blank.")
		} else {
			w.fields["text"] = *req.Text
		}
	}

	if required("cooking_time", req.CookingTime != nil) {
		if ct := *req.CookingTime; ct < models.MinAmount || ct > models.MaxAmount {
			verr.Add("cooking_time", "Ensure this value is between %d and %d.", models.MinAmount, models.MaxAmount)
		} else {
			w.fields["cooking_time"] = ct
		}
	}

	if required("image", req.Image != nil) {
		upload, err := DecodeDataURI("image", *req.Image)
		if err == nil {
			w.imageExt, w.imageType, err = upload.Inspect("image")
			w.image = upload
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			for f, msgs := range ve.Fields {
				for _, m := range msgs {
					verr.Add(f, "%s", m)
				}
			}
		} else if err != nil {
			return nil, err
		}
	}

	if required("tags", req.Tags != nil) {
		w.setTags = true
		seen := map[uint]bool{}
		for _, id := range req.Tags {
			if seen[id] {
				verr.Add("tags", "Tag %d is listed more than once.", id)
				continue
			}
			seen[id] = true
			w.tags = append(w.tags, id)
		}
	}

	if required("ingredients", req.Ingredients != nil) {
		w.setIngr = true
		if len(req.Ingredients) == 0 {
			verr.Add("ingredients", "Add at least one ingredient.")
		}
		seen := map[uint]bool{}
		for _, item := range req.Ingredients {
			if item.Amount < models.MinAmount || item.Amount > models.MaxAmount {
				verr.Add("ingredients", "Amount must be between %d and %d.", models.MinAmount, models.MaxAmount)
			}
			if seen[item.ID] {
				verr.Add("ingredients", "Ingredients must be unique.")
				continue
			}
			seen[item.ID] = true
		}
		w.ingredients = req.Ingredients
	}

	db := s.db.WithContext(ctx)
	if len(w.tags) > 0 {
		var found int64
		if err := db.Model(&models.Tag{}).Where("id IN ?", w.tags).Count(&found).Error; err != nil {
			return nil, fmt.Errorf("failed to check tags: %w", err)
		}
		if found != int64(len(w.tags)) {
			verr.Add("tags", "Unknown tag id.")
		}
	}
	if ids := ingredientIDs(w.ingredients); len(ids) > 0 {
		var found int64
		if err := db.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return nil, fmt.Errorf("failed to check ingredients: %w", err)
		}
		if found != int64(len(ids)) {
			verr.Add("ingredients", "Unknown ingredient id.")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return w, nil
}

func ingredientIDs(items []types.IngredientAmount) []uint {
	seen := map[uint]bool{}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if !seen[it.ID] {
			seen[it.ID] = true
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (s *RecipeService) storeImage(ctx context.Context, w *recipeWrite) (string, error) {
	if w.image == nil {
		return "", nil
	}
	key := fmt.Sprintf("recipes/images/%s.%s", uuid.NewString(), w.imageExt)
	url, err := s.images.Save(ctx, key, w.image.Data, w.imageType)
	if err != nil {
		return "", fmt.Errorf("failed to store recipe image: %w", err)
	}
	return url, nil
}

// replaceLinks rebuilds the tag and ingredient links present in w.
func replaceLinks(tx *gorm.DB, recipeID uint, w *recipeWrite) error {
	if w.setTags {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
			return err
		}
		if len(w.tags) > 0 {
			rows := make([]models.RecipeTag, len(w.tags))
			for i, id := range w.tags {
				rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
	}
	if w.setIngr {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		rows := make([]models.RecipeIngredient, len(w.ingredients))
		for i, it := range w.ingredients {
			rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: it.ID, Amount: it.Amount}
		}
		if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *RecipeService) Create(ctx context.Context, p *types.Principal, req types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	if !p.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	w, err := s.validate(ctx, req, types.WriteCreate)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, w)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recipe := &models.Recipe{
		AuthorID:    p.UserID,
		Name:        w.fields["name"].(string),
		Text:        w.fields["text"].(string),
		CookingTime: w.fields["cooking_time"].(int),
		Image:       imageURL,
		PubDate:     now,
		UpdatedAt:   now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return replaceLinks(tx, recipe.ID, w)
	})
	if err != nil {
		deleteImages(ctx, s.images, imageURL)
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	metrics.RecipesCreated.Inc()
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", p.UserID).Msg("recipe created")
	return s.Get(ctx, p, recipe.ID)
}

// Update applies a PUT (WriteReplace) or PATCH (WritePatch). pub_date is
// never touched.
func (s *RecipeService) Update(ctx context.Context, p *types.Principal, id uint, req types.RecipeWriteRequest, mode types.WriteMode) (*types.RecipeResponse, error) {
	if !p.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanModify(recipe.AuthorID) {
		return nil, ErrForbidden
	}

	w, err := s.validate(ctx, req, mode)
	if err != nil {
		return nil, err
	}
	imageURL, err := s.storeImage(ctx, w)
	if err != nil {
		return nil, err
	}
	if imageURL != "" {
		w.fields["image"] = imageURL
	}
	w.fields["updated_at"] = time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(w.fields).Error; err != nil {
			return err
		}
		return replaceLinks(tx, id, w)
	})
	if err != nil {
		deleteImages(ctx, s.images, imageURL)
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	if imageURL != "" {
		deleteImages(ctx, s.images, recipe.Image)
	}

	return s.Get(ctx, p, id)
}

func (s *RecipeService) Delete(ctx context.Context, p *types.Principal, id uint) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	recipe, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanModify(recipe.AuthorID) {
		return ErrForbidden
	}

	var images []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		images, err = deleteRecipesTx(tx, []uint{id})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	deleteImages(ctx, s.images, images...)
	logging.Ctx(ctx).Info().Uint("recipe_id", id).Uint("by", p.UserID).Msg("recipe deleted")
	return nil
}

// deleteRecipesTx removes recipes and everything that points at them,
// returning their image URLs for cleanup after commit.
func deleteRecipesTx(tx *gorm.DB, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var images []string
	if err := tx.Model(&models.Recipe{}).Where("id IN ?", ids).Pluck("image", &images).Error; err != nil {
		return nil, err
	}
	for _, m := range []interface{}{&models.RecipeTag{}, &models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCart{}} {
		if err := tx.Where("recipe_id IN ?", ids).Delete(m).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Recipe{}).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (s *RecipeService) load(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

func (s *RecipeService) Get(ctx context.Context, p *types.Principal, id uint) (*types.RecipeResponse, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := s.represent(ctx, p, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Link returns the shareable frontend URL of a recipe.
func (s *RecipeService) Link(ctx context.Context, id uint) (string, error) {
	if _, err := s.load(ctx, id); err != nil {
		return "", err
	}
	return RecipeURL(s.domain, id), nil
}

func (s *RecipeService) filtered(ctx context.Context, p *types.Principal, f types.RecipeFilter) *gorm.DB {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Recipe{})
	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		sub := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if f.IsFavorited && p.IsAuthenticated() {
		q = q.Where("recipes.id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", p.UserID))
	}
	if f.IsInShoppingCart && p.IsAuthenticated() {
		q = q.Where("recipes.id IN (?)", db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", p.UserID))
	}
	if f.Search != "" {
		q = q.Where(`LOWER(recipes.name) LIKE ? ESCAPE '\'`, likeContains(f.Search))
	}
	return q
}

// List returns one page of recipes, newest first.
func (s *RecipeService) List(ctx context.Context, p *types.Principal, f types.RecipeFilter, page types.PageRequest) ([]types.RecipeResponse, int64, error) {
	var total int64
	if err := s.filtered(ctx, p, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if err := checkPage(page, total); err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := s.filtered(ctx, p, f).
		Order("recipes.pub_date DESC").Order("recipes.id DESC").
		Scopes(paginate(page)).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	out, err := s.represent(ctx, p, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Favorites lists the requester's favorited recipes.
func (s *RecipeService) Favorites(ctx context.Context, p *types.Principal, page types.PageRequest) ([]types.RecipeResponse, int64, error) {
	if !p.IsAuthenticated() {
		return nil, 0, ErrUnauthenticated
	}
	return s.List(ctx, p, types.RecipeFilter{IsFavorited: true}, page)
}

type recipeTagRow struct {
	RecipeID uint
	ID       uint
	Name     string
	Color    string
	Slug     string
}

// represent builds read representations in a fixed number of queries.
func (s *RecipeService) represent(ctx context.Context, p *types.Principal, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	out := make([]types.RecipeResponse, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}
	db := s.db.WithContext(ctx)

	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	var tagRows []recipeTagRow
	err := db.Table("recipe_tags").
		Select("recipe_tags.recipe_id, tags.id, tags.name, tags.color, tags.slug").
		Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
		Where("recipe_tags.recipe_id IN ?", ids).
		Order("tags.name").
		Scan(&tagRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe tags: %w", err)
	}
	tags := map[uint][]types.TagResponse{}
	for _, row := range tagRows {
		tags[row.RecipeID] = append(tags[row.RecipeID], types.TagResponse{
			ID: row.ID, Name: row.Name, Color: row.Color, Slug: row.Slug,
		})
	}

	var links []models.RecipeIngredient
	if err := db.Preload("Ingredient").Where("recipe_id IN ?", ids).Order("id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	ingredients := map[uint][]types.RecipeIngredientResponse{}
	for _, l := range links {
		ingredients[l.RecipeID] = append(ingredients[l.RecipeID], types.RecipeIngredientResponse{
			ID:              l.IngredientID,
			Name:            l.Ingredient.Name,
			MeasurementUnit: l.Ingredient.MeasurementUnit,
			Amount:          l.Amount,
		})
	}

	authors, err := loadUserResponses(ctx, s.db, p, authorIDs)
	if err != nil {
		return nil, err
	}

	favorited, err := markedRecipeIDs(db, &models.Favorite{}, p, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := markedRecipeIDs(db, &models.ShoppingCart{}, p, ids)
	if err != nil {
		return nil, err
	}

	for _, r := range recipes {
		rt := tags[r.ID]
		if rt == nil {
			rt = []types.TagResponse{}
		}
		ri := ingredients[r.ID]
		if ri == nil {
			ri = []types.RecipeIngredientResponse{}
		}
		out = append(out, types.RecipeResponse{
			ID:               r.ID,
			Tags:             rt,
			Author:           authors[r.AuthorID],
			Ingredients:      ri,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		})
	}
	return out, nil
}

// markedRecipeIDs returns which of ids the principal has marked in the
// given favorites or cart model.
func markedRecipeIDs(db *gorm.DB, model interface{}, p *types.Principal, ids []uint) (map[uint]bool, error) {
	marked := map[uint]bool{}
	if !p.IsAuthenticated() {
		return marked, nil
	}
	var found []uint
	err := db.Model(model).Where("user_id = ? AND recipe_id IN ?", p.UserID, ids).Pluck("recipe_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load markers: %w", err)
	}
	for _, id := range found {
		marked[id] = true
	}
	return marked, nil
}

func minified(r models.Recipe) types.RecipeMinified {
	return types.RecipeMinified{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func sortedUnique(ids []uint) []uint {
	seen := map[uint]bool{}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
