package mocks

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, viewer *types.Principal, id uint) (*types.UserResponse, error) {
	args := m.Called(ctx, viewer, id)
	return valueOrNil[types.UserResponse](args.Get(0)), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, viewer *types.Principal, page types.PageRequest) ([]types.UserResponse, int64, error) {
	args := m.Called(ctx, viewer, page)
	return sliceOrNil[types.UserResponse](args.Get(0)), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) UpdateMe(ctx context.Context, viewer *types.Principal, req types.UpdateUserRequest) (*types.UserResponse, error) {
	args := m.Called(ctx, viewer, req)
	return valueOrNil[types.UserResponse](args.Get(0)), args.Error(1)
}

func (m *MockUserService) SetAvatar(ctx context.Context, viewer *types.Principal, upload *service.ImageUpload) (string, error) {
	args := m.Called(ctx, viewer, upload)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) DeleteAvatar(ctx context.Context, viewer *types.Principal) error {
	return m.Called(ctx, viewer).Error(0)
}

func (m *MockUserService) Subscribe(ctx context.Context, viewer *types.Principal, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	args := m.Called(ctx, viewer, authorID, recipesLimit)
	return valueOrNil[types.SubscriptionResponse](args.Get(0)), args.Error(1)
}

func (m *MockUserService) Unsubscribe(ctx context.Context, viewer *types.Principal, authorID uint) error {
	return m.Called(ctx, viewer, authorID).Error(0)
}

func (m *MockUserService) Subscriptions(ctx context.Context, viewer *types.Principal, page types.PageRequest, recipesLimit int) ([]types.SubscriptionResponse, int64, error) {
	args := m.Called(ctx, viewer, page, recipesLimit)
	return sliceOrNil[types.SubscriptionResponse](args.Get(0)), args.Get(1).(int64), args.Error(2)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	args := m.Called(ctx)
	return sliceOrNil[types.TagResponse](args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	args := m.Called(ctx, id)
	return valueOrNil[types.TagResponse](args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) ListIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error) {
	args := m.Called(ctx, name)
	return sliceOrNil[types.IngredientResponse](args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	args := m.Called(ctx, id)
	return valueOrNil[types.IngredientResponse](args.Get(0)), args.Error(1)
}
