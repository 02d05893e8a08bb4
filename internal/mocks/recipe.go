package mocks

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) Create(ctx context.Context, p *types.Principal, req types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, p, req)
	return valueOrNil[types.RecipeResponse](args.Get(0)), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, p *types.Principal, id uint, req types.RecipeWriteRequest, mode types.WriteMode) (*types.RecipeResponse, error) {
	args := m.Called(ctx, p, id, req, mode)
	return valueOrNil[types.RecipeResponse](args.Get(0)), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, p *types.Principal, id uint) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockRecipeService) Get(ctx context.Context, p *types.Principal, id uint) (*types.RecipeResponse, error) {
	args := m.Called(ctx, p, id)
	return valueOrNil[types.RecipeResponse](args.Get(0)), args.Error(1)
}

func (m *MockRecipeService) List(ctx context.Context, p *types.Principal, filter types.RecipeFilter, page types.PageRequest) ([]types.RecipeResponse, int64, error) {
	args := m.Called(ctx, p, filter, page)
	return sliceOrNil[types.RecipeResponse](args.Get(0)), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) Link(ctx context.Context, id uint) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockRecipeService) Favorites(ctx context.Context, p *types.Principal, page types.PageRequest) ([]types.RecipeResponse, int64, error) {
	args := m.Called(ctx, p, page)
	return sliceOrNil[types.RecipeResponse](args.Get(0)), args.Get(1).(int64), args.Error(2)
}

// MockInteractionService mocks favorites, the cart and the shopping list.
type MockInteractionService struct {
	mock.Mock
}

func (m *MockInteractionService) AddFavorite(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error) {
	args := m.Called(ctx, p, recipeID)
	return valueOrNil[types.RecipeResponse](args.Get(0)), args.Error(1)
}

func (m *MockInteractionService) RemoveFavorite(ctx context.Context, p *types.Principal, recipeID uint) error {
	return m.Called(ctx, p, recipeID).Error(0)
}

func (m *MockInteractionService) AddToCart(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error) {
	args := m.Called(ctx, p, recipeID)
	return valueOrNil[types.RecipeResponse](args.Get(0)), args.Error(1)
}

func (m *MockInteractionService) RemoveFromCart(ctx context.Context, p *types.Principal, recipeID uint) error {
	return m.Called(ctx, p, recipeID).Error(0)
}

func (m *MockInteractionService) ShoppingList(ctx context.Context, p *types.Principal) ([]types.ShoppingListLine, error) {
	args := m.Called(ctx, p)
	return sliceOrNil[types.ShoppingListLine](args.Get(0)), args.Error(1)
}
