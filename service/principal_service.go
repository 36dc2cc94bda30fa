// service/principal_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-mohitbeniwal/dataeng/api/audit"
	"github.com/dev-mohitbeniwal/dataeng/api/dao"
	"github.com/dev-mohitbeniwal/dataeng/api/db"
	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
	"github.com/dev-mohitbeniwal/dataeng/api/security"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

// IPrincipalService defines the administrative operations on principals
type IPrincipalService interface {
	CreatePrincipal(ctx context.Context, req model.CreatePrincipalRequest, actor string) (*model.Principal, error)
	BulkCreatePrincipals(ctx context.Context, reqs []model.CreatePrincipalRequest, actor string) ([]*model.Principal, error)
	SetActive(ctx context.Context, name string, active bool, actor string) (*model.Principal, error)
	InvalidatePrincipal(ctx context.Context, name string, actor string) bool
	ClearPrincipalCache(ctx context.Context, actor string) bool
	CacheStats(ctx context.Context) db.CacheStats
	AuditTrail(ctx context.Context, principal string, from, to time.Time) ([]audit.AuditLog, error)
}

const bulkCreateConcurrency = 4

type PrincipalService struct {
	store          dao.PrincipalStore
	cache          *util.PrincipalCache
	auditService   audit.Service
	validationUtil *util.ValidationUtil
	eventBus       *util.EventBus
}

var _ IPrincipalService = &PrincipalService{}

func NewPrincipalService(store dao.PrincipalStore, cache *util.PrincipalCache, auditService audit.Service, validationUtil *util.ValidationUtil, eventBus *util.EventBus) *PrincipalService {
	return &PrincipalService{
		store:          store,
		cache:          cache,
		auditService:   auditService,
		validationUtil: validationUtil,
		eventBus:       eventBus,
	}
}

func (s *PrincipalService) CreatePrincipal(ctx context.Context, req model.CreatePrincipalRequest, actor string) (*model.Principal, error) {
	if err := s.validationUtil.ValidateCreatePrincipal(req); err != nil {
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrInvalidPrincipalData, err)
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", zap.Error(err), zap.String("name", req.Name))
		return nil, err
	}

	principal := model.Principal{
		Name:           req.Name,
		Email:          req.Email,
		CredentialHash: hash,
		Role:           req.Role,
		Active:         true,
	}
	if err := s.validationUtil.ValidatePrincipal(principal); err != nil {
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrInvalidPrincipalData, err)
	}

	created, err := s.store.Create(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, util.Event{
		Type:    util.EventPrincipalCreated,
		Actor:   actor,
		Subject: created.Name,
		Granted: true,
		Details: map[string]any{"role": string(created.Role)},
	})
	return created, nil
}

// BulkCreatePrincipals creates principals in parallel and stops at the
// first failure. Principals created before the failure are kept.
func (s *PrincipalService) BulkCreatePrincipals(ctx context.Context, reqs []model.CreatePrincipalRequest, actor string) ([]*model.Principal, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkCreateConcurrency)
	created := make([]*model.Principal, len(reqs))

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			principal, err := s.CreatePrincipal(ctx, req, actor)
			if err != nil {
				return fmt.Errorf("principal %q: %w", req.Name, err)
			}
			created[i] = principal
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Error in bulk create principals", zap.Error(err), zap.String("actor", actor))
		return nil, err
	}

	logger.Info("Bulk create principals completed", zap.Int("count", len(created)), zap.String("actor", actor))
	return created, nil
}

// SetActive persists the flag and then drops the cached copy so the change
// is seen by the next resolve.
func (s *PrincipalService) SetActive(ctx context.Context, name string, active bool, actor string) (*model.Principal, error) {
	updated, err := s.store.SetActive(ctx, name, active)
	if err != nil {
		return nil, err
	}

	if !s.cache.Invalidate(ctx, name) {
		logger.Warn("Cached principal not invalidated, change applies after TTL",
			zap.String("name", name),
			zap.Duration("ttl", s.cache.TTL()))
	}

	s.eventBus.Publish(ctx, util.Event{
		Type:    util.EventPrincipalActiveChanged,
		Actor:   actor,
		Subject: name,
		Granted: true,
		Details: map[string]any{"active": active},
	})
	return updated, nil
}

func (s *PrincipalService) InvalidatePrincipal(ctx context.Context, name string, actor string) bool {
	ok := s.cache.Invalidate(ctx, name)
	s.eventBus.Publish(ctx, util.Event{
		Type:    util.EventPrincipalInvalidated,
		Actor:   actor,
		Subject: name,
		Granted: ok,
	})
	return ok
}

func (s *PrincipalService) ClearPrincipalCache(ctx context.Context, actor string) bool {
	ok := s.cache.Clear(ctx)
	s.eventBus.Publish(ctx, util.Event{
		Type:    util.EventPrincipalCacheCleared,
		Actor:   actor,
		Granted: ok,
	})
	return ok
}

func (s *PrincipalService) CacheStats(ctx context.Context) db.CacheStats {
	return s.cache.Stats(ctx)
}

func (s *PrincipalService) AuditTrail(ctx context.Context, principal string, from, to time.Time) ([]audit.AuditLog, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from must not be after to", echo_errors.ErrInvalidRequest)
	}
	return s.auditService.QueryLogs(ctx, from, to, principal)
}
