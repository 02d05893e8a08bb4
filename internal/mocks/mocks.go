// Package mocks holds testify mocks of the service interfaces the HTTP
// handlers depend on.
package mocks

import "github.com/pageza/foodgram/backend/internal/service"

var (
	_ service.IAuthService        = (*MockAuthService)(nil)
	_ service.IUserService        = (*MockUserService)(nil)
	_ service.ICatalogService     = (*MockCatalogService)(nil)
	_ service.IRecipeService      = (*MockRecipeService)(nil)
	_ service.IInteractionService = (*MockInteractionService)(nil)
)

// valueOrNil unwraps a pointer return value that may be nil.
func valueOrNil[T any](v interface{}) *T {
	if v == nil {
		return nil
	}
	return v.(*T)
}

func sliceOrNil[T any](v interface{}) []T {
	if v == nil {
		return nil
	}
	return v.([]T)
}
