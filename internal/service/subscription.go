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

// Subscribe makes the viewer follow authorID. recipesLimit <= 0 means no
// limit on the embedded recipes.
func (s *UserService) Subscribe(ctx context.Context, viewer *types.Principal, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	if !viewer.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == viewer.UserID {
		return nil, NewValidationError("", "You cannot subscribe to yourself.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND author_id = ?", viewer.UserID, authorID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(&models.Subscription{UserID: viewer.UserID, AuthorID: authorID}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		metrics.RecordToggleConflict("subscription")
		return nil, &ConflictError{Relation: "subscription", Message: "You are already subscribed to this user."}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out, err := s.representSubscriptions(ctx, viewer, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *UserService) Unsubscribe(ctx context.Context, viewer *types.Principal, authorID uint) error {
	if !viewer.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if _, err := s.loadUser(ctx, authorID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", viewer.UserID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscriptions lists the authors the viewer follows, most recent first.
func (s *UserService) Subscriptions(ctx context.Context, viewer *types.Principal, page types.PageRequest, recipesLimit int) ([]types.SubscriptionResponse, int64, error) {
	if !viewer.IsAuthenticated() {
		return nil, 0, ErrUnauthenticated
	}
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Subscription{}).Where("user_id = ?", viewer.UserID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if err := checkPage(page, total); err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := db.Model(&models.User{}).
		Select("users.*").
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", viewer.UserID).
		Order("subscriptions.id DESC").
		Scopes(paginate(page)).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	out, err := s.representSubscriptions(ctx, viewer, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *UserService) representSubscriptions(ctx context.Context, viewer *types.Principal, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	db := s.db.WithContext(ctx)
	users, err := representUsers(db, viewer, authors)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	var counts []struct {
		AuthorID uint
		Total    int64
	}
	if len(ids) > 0 {
		err := db.Model(&models.Recipe{}).
			Select("author_id, COUNT(*) AS total").
			Where("author_id IN ?", ids).
			Group("author_id").
			Scan(&counts).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}
	}
	countByAuthor := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByAuthor[c.AuthorID] = c.Total
	}

	out := make([]types.SubscriptionResponse, len(users))
	for i, u := range users {
		q := db.Where("author_id = ?", u.ID).Order("pub_date DESC").Order("id DESC")
		if recipesLimit > 0 {
			q = q.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := q.Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load author recipes: %w", err)
		}
		mini := make([]types.RecipeMinified, len(recipes))
		for j, r := range recipes {
			mini[j] = minified(r)
		}
		out[i] = types.SubscriptionResponse{
			UserResponse: u,
			Recipes:      mini,
			RecipesCount: countByAuthor[u.ID],
		}
	}
	return out, nil
}
