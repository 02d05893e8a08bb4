package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	images ImageStore
}

func NewUserService(db *gorm.DB, images ImageStore) *UserService {
	return &UserService{db: db, images: images}
}

func userResponse(u models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Avatar:       u.Avatar,
		IsSubscribed: subscribed,
	}
}

// RegisteredUser is the registration response for u.
func RegisteredUser(u *models.User) types.RegisteredUserResponse {
	return types.RegisteredUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// subscribedAuthors returns which of authorIDs the viewer follows.
func subscribedAuthors(db *gorm.DB, viewer *types.Principal, authorIDs []uint) (map[uint]bool, error) {
	out := map[uint]bool{}
	if !viewer.IsAuthenticated() || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := db.Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewer.UserID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func representUsers(db *gorm.DB, viewer *types.Principal, users []models.User) ([]types.UserResponse, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := subscribedAuthors(db, viewer, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserResponse, len(users))
	for i, u := range users {
		out[i] = userResponse(u, subscribed[u.ID])
	}
	return out, nil
}

func loadUserResponses(ctx context.Context, db *gorm.DB, viewer *types.Principal, ids []uint) (map[uint]types.UserResponse, error) {
	db = db.WithContext(ctx)
	var users []models.User
	if err := db.Where("id IN ?", sortedUnique(ids)).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	reps, err := representUsers(db, viewer, users)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]types.UserResponse, len(reps))
	for _, r := range reps {
		out[r.ID] = r
	}
	return out, nil
}

func (s *UserService) loadUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, viewer *types.Principal, id uint) (*types.UserResponse, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	reps, err := representUsers(s.db.WithContext(ctx), viewer, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &reps[0], nil
}

func (s *UserService) List(ctx context.Context, viewer *types.Principal, page types.PageRequest) ([]types.UserResponse, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if err := checkPage(page, total); err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := db.Order("id").Scopes(paginate(page)).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	reps, err := representUsers(db, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return reps, total, nil
}

// UpdateMe changes the viewer's own profile fields.
func (s *UserService) UpdateMe(ctx context.Context, viewer *types.Principal, req types.UpdateUserRequest) (*types.UserResponse, error) {
	if !viewer.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	db := s.db.WithContext(ctx)
	verr := &ValidationError{}
	updates := map[string]interface{}{}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		var n int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, viewer.UserID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if n > 0 {
			verr.Add("email", "A user with that email already exists.")
		}
		updates["email"] = email
	}
	if req.Username != nil {
		if !ValidUsername(*req.Username) {
			verr.Add("username", "Enter a valid username.")
		}
		var n int64
		if err := db.Model(&models.User{}).Where("username = ? AND id <> ?", *req.Username, viewer.UserID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if n > 0 {
			verr.Add("username", "A user with that username already exists.")
		}
		updates["username"] = *req.Username
	}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		err := db.Model(&models.User{}).Where("id = ?", viewer.UserID).Updates(updates).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("", "A user with that email or username already exists.")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return s.Get(ctx, viewer, viewer.UserID)
}

// SetAvatar stores a new avatar and returns its URL. The previous file is
// removed after the row is updated.
func (s *UserService) SetAvatar(ctx context.Context, viewer *types.Principal, upload *ImageUpload) (string, error) {
	if !viewer.IsAuthenticated() {
		return "", ErrUnauthenticated
	}
	user, err := s.loadUser(ctx, viewer.UserID)
	if err != nil {
		return "", err
	}

	ext, contentType, err := upload.Inspect("avatar")
	if err != nil {
		return "", err
	}
	data, err := NormalizeAvatar(upload.Data, ext)
	if err != nil {
		return "", NewValidationError("avatar", "Upload a valid image.")
	}

	key := fmt.Sprintf("users/avatars/%s.%s", uuid.NewString(), ext)
	url, err := s.images.Save(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		deleteImages(ctx, s.images, url)
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	if user.Avatar != nil {
		deleteImages(ctx, s.images, *user.Avatar)
	}
	return url, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, viewer *types.Principal) error {
	if !viewer.IsAuthenticated() {
		return ErrUnauthenticated
	}
	user, err := s.loadUser(ctx, viewer.UserID)
	if err != nil {
		return err
	}
	if user.Avatar == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", nil).Error; err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}
	deleteImages(ctx, s.images, *user.Avatar)
	return nil
}

// DeleteUser removes a user with their recipes, markers and subscriptions
// in both directions, in one transaction.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}

	var images []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipeIDs []uint
		if err := tx.Model(&models.Recipe{}).Where("author_id = ?", id).Pluck("id", &recipeIDs).Error; err != nil {
			return err
		}
		imgs, err := deleteRecipesTx(tx, recipeIDs)
		if err != nil {
			return err
		}
		images = imgs
		for _, m := range []interface{}{&models.Favorite{}, &models.ShoppingCart{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if user.Avatar != nil {
		images = append(images, *user.Avatar)
	}
	deleteImages(ctx, s.images, images...)
	logging.Ctx(ctx).Info().Uint("user_id", id).Msg("user deleted")
	return nil
}
