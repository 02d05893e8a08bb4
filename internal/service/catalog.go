package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func tagResponse(t models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientResponse(i models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]types.TagResponse, len(tags))
	for i, t := range tags {
		out[i] = tagResponse(t)
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	out := tagResponse(tag)
	return &out, nil
}

// ListIngredients filters by a case-insensitive name fragment. Names that
// start with the fragment come first, then other matches, each by name.
func (s *CatalogService) ListIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	order := "name, id"
	var vars []interface{}
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeContains(name))
		order = `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, name, id`
		vars = []interface{}{likePrefix(name)}
	}
	var ingredients []models.Ingredient
	if err := q.Order(clause.OrderBy{Expression: clause.Expr{SQL: order, Vars: vars}}).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	out := make([]types.IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ingredientResponse(ing)
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	out := ingredientResponse(ing)
	return &out, nil
}

// SeedTags inserts tags, skipping ones that clash with existing rows.
// It returns how many were inserted.
func (s *CatalogService) SeedTags(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&tags, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to seed tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SeedIngredients is SeedTags for ingredients.
func (s *CatalogService) SeedIngredients(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to seed ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}
