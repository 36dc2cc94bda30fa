// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/dataeng/api/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogAccess(ctx context.Context, log audit.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditService) QueryLogs(ctx context.Context, from, to time.Time, principal string) ([]audit.AuditLog, error) {
	args := m.Called(ctx, from, to, principal)
	if logs := args.Get(0); logs != nil {
		return logs.([]audit.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}
