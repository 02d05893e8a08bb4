package service

import (
	"context"
	"time"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ImageStore persists encoded images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind a URL previously returned by Save.
	Delete(ctx context.Context, url string) error
}

// TokenStore tracks revoked token ids.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*types.Principal, error)
	Logout(ctx context.Context, p *types.Principal) error
	SetPassword(ctx context.Context, p *types.Principal, req types.SetPasswordRequest) error
}

// IUserService covers profiles, avatars and subscriptions.
type IUserService interface {
	Get(ctx context.Context, viewer *types.Principal, id uint) (*types.UserResponse, error)
	List(ctx context.Context, viewer *types.Principal, page types.PageRequest) ([]types.UserResponse, int64, error)
	UpdateMe(ctx context.Context, viewer *types.Principal, req types.UpdateUserRequest) (*types.UserResponse, error)
	SetAvatar(ctx context.Context, viewer *types.Principal, upload *ImageUpload) (string, error)
	DeleteAvatar(ctx context.Context, viewer *types.Principal) error
	Subscribe(ctx context.Context, viewer *types.Principal, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, viewer *types.Principal, authorID uint) error
	Subscriptions(ctx context.Context, viewer *types.Principal, page types.PageRequest, recipesLimit int) ([]types.SubscriptionResponse, int64, error)
}

// ICatalogService serves the read-only tag and ingredient catalogs.
type ICatalogService interface {
	ListTags(ctx context.Context) ([]types.TagResponse, error)
	GetTag(ctx context.Context, id uint) (*types.TagResponse, error)
	ListIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, p *types.Principal, req types.RecipeWriteRequest) (*types.RecipeResponse, error)
	Update(ctx context.Context, p *types.Principal, id uint, req types.RecipeWriteRequest, mode types.WriteMode) (*types.RecipeResponse, error)
	Delete(ctx context.Context, p *types.Principal, id uint) error
	Get(ctx context.Context, p *types.Principal, id uint) (*types.RecipeResponse, error)
	List(ctx context.Context, p *types.Principal, filter types.RecipeFilter, page types.PageRequest) ([]types.RecipeResponse, int64, error)
	Link(ctx context.Context, id uint) (string, error)
	Favorites(ctx context.Context, p *types.Principal, page types.PageRequest) ([]types.RecipeResponse, int64, error)
}

// IInteractionService handles favorites, the shopping cart and the list built from it.
type IInteractionService interface {
	AddFavorite(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error)
	RemoveFavorite(ctx context.Context, p *types.Principal, recipeID uint) error
	AddToCart(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error)
	RemoveFromCart(ctx context.Context, p *types.Principal, recipeID uint) error
	ShoppingList(ctx context.Context, p *types.Principal) ([]types.ShoppingListLine, error)
}
