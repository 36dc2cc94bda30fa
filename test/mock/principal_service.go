// test/mock/principal_service.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/dataeng/api/audit"
	"github.com/dev-mohitbeniwal/dataeng/api/db"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// MockPrincipalService is a mock implementation of service.IPrincipalService
type MockPrincipalService struct {
	mock.Mock
}

func (m *MockPrincipalService) CreatePrincipal(ctx context.Context, req model.CreatePrincipalRequest, actor string) (*model.Principal, error) {
	args := m.Called(ctx, req, actor)
	if p := args.Get(0); p != nil {
		return p.(*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalService) BulkCreatePrincipals(ctx context.Context, reqs []model.CreatePrincipalRequest, actor string) ([]*model.Principal, error) {
	args := m.Called(ctx, reqs, actor)
	if p := args.Get(0); p != nil {
		return p.([]*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalService) SetActive(ctx context.Context, name string, active bool, actor string) (*model.Principal, error) {
	args := m.Called(ctx, name, active, actor)
	if p := args.Get(0); p != nil {
		return p.(*model.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalService) InvalidatePrincipal(ctx context.Context, name string, actor string) bool {
	return m.Called(ctx, name, actor).Bool(0)
}

func (m *MockPrincipalService) ClearPrincipalCache(ctx context.Context, actor string) bool {
	return m.Called(ctx, actor).Bool(0)
}

func (m *MockPrincipalService) CacheStats(ctx context.Context) db.CacheStats {
	return m.Called(ctx).Get(0).(db.CacheStats)
}

func (m *MockPrincipalService) AuditTrail(ctx context.Context, principal string, from, to time.Time) ([]audit.AuditLog, error) {
	args := m.Called(ctx, principal, from, to)
	if logs := args.Get(0); logs != nil {
		return logs.([]audit.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}
