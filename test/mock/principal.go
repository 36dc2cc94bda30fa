// test/mock/principal.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// MockPrincipalStore is a mock implementation of dao.PrincipalStore
type MockPrincipalStore struct {
	mock.Mock
}

func (m *MockPrincipalStore) FindByName(ctx context.Context, name string) (*model.Principal, error) {
	args := m.Called(ctx, name)
	if p := args.Get(0); p != nil {
		return p.(*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalStore) Create(ctx context.Context, principal model.Principal) (*model.Principal, error) {
	args := m.Called(ctx, principal)
	if p := args.Get(0); p != nil {
		return p.(*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalStore) SetActive(ctx context.Context, name string, active bool) (*model.Principal, error) {
	args := m.Called(ctx, name, active)
	if p := args.Get(0); p != nil {
		return p.(*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}
