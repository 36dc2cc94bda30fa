// test/mock/auth.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// MockAuthService is a mock implementation of service.IAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Resolve(ctx context.Context, token string) (*model.Principal, error) {
	args := m.Called(ctx, token)
	if p := args.Get(0); p != nil {
		return p.(*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, name, password string) (*model.TokenResponse, error) {
	args := m.Called(ctx, name, password)
	if resp := args.Get(0); resp != nil {
		return resp.(*model.TokenResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
