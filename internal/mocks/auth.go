package mocks

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	return valueOrNil[models.User](args.Get(0)), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*types.Principal, error) {
	args := m.Called(ctx, token)
	return valueOrNil[types.Principal](args.Get(0)), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, p *types.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockAuthService) SetPassword(ctx context.Context, p *types.Principal, req types.SetPasswordRequest) error {
	return m.Called(ctx, p, req).Error(0)
}
