package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// InteractionService toggles favorites and cart entries.
type InteractionService struct {
	db      *gorm.DB
	recipes *RecipeService
}

func NewInteractionService(db *gorm.DB, recipes *RecipeService) *InteractionService {
	return &InteractionService{db: db, recipes: recipes}
}

type marker interface {
	models.Favorite | models.ShoppingCart
}

// addMarker checks for an existing row and inserts inside one transaction.
// A concurrent insert that slips past the check hits the unique index and
// surfaces as the same conflict.
func addMarker[T marker](ctx context.Context, db *gorm.DB, row *T, userID, recipeID uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(new(T)).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(row).Error
	})
}

func removeMarker[T marker](ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	res := db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *InteractionService) add(ctx context.Context, p *types.Principal, recipeID uint, relation, message string, insert func() error) (*types.RecipeResponse, error) {
	if !p.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if _, err := s.recipes.load(ctx, recipeID); err != nil {
		return nil, err
	}
	if err := insert(); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RecordToggleConflict(relation)
			return nil, &ConflictError{Relation: relation, Message: message}
		}
		return nil, fmt.Errorf("failed to add %s: %w", relation, err)
	}
	return s.recipes.Get(ctx, p, recipeID)
}

func (s *InteractionService) remove(ctx context.Context, p *types.Principal, recipeID uint, remove func() error) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if _, err := s.recipes.load(ctx, recipeID); err != nil {
		return err
	}
	return remove()
}

func (s *InteractionService) AddFavorite(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error) {
	return s.add(ctx, p, recipeID, "favorite", "Recipe is already in favorites.", func() error {
		return addMarker(ctx, s.db, &models.Favorite{UserID: p.UserID, RecipeID: recipeID}, p.UserID, recipeID)
	})
}

func (s *InteractionService) RemoveFavorite(ctx context.Context, p *types.Principal, recipeID uint) error {
	return s.remove(ctx, p, recipeID, func() error {
		return removeMarker[models.Favorite](ctx, s.db, p.UserID, recipeID)
	})
}

func (s *InteractionService) AddToCart(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error) {
	return s.add(ctx, p, recipeID, "shopping_cart", "Recipe is already in the shopping cart.", func() error {
		return addMarker(ctx, s.db, &models.ShoppingCart{UserID: p.UserID, RecipeID: recipeID}, p.UserID, recipeID)
	})
}

func (s *InteractionService) RemoveFromCart(ctx context.Context, p *types.Principal, recipeID uint) error {
	return s.remove(ctx, p, recipeID, func() error {
		return removeMarker[models.ShoppingCart](ctx, s.db, p.UserID, recipeID)
	})
}
