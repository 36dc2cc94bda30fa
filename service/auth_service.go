// service/auth_service.go
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/dataeng/api/dao"
	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
	"github.com/dev-mohitbeniwal/dataeng/api/security"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

const (
	ReasonInvalidToken       = "invalid or expired token"
	ReasonInvalidPayload     = "invalid token payload"
	ReasonPrincipalNotFound  = "user not found"
	ReasonInactiveAccount    = "inactive account"
	ReasonInvalidCredentials = "incorrect username or password"
	ReasonInsufficientRole   = "insufficient permissions"
)

// IAuthService resolves bearer credentials to principals and issues them.
type IAuthService interface {
	Resolve(ctx context.Context, token string) (*model.Principal, error)
	Login(ctx context.Context, name, password string) (*model.TokenResponse, error)
}

// AuthService is the cache-aside identity resolver.
type AuthService struct {
	verifier *security.CredentialVerifier
	cache    *util.PrincipalCache
	repo     dao.PrincipalRepository
	eventBus *util.EventBus

	checkPassword func(password, hash string) bool
}

var _ IAuthService = &AuthService{}

func NewAuthService(verifier *security.CredentialVerifier, cache *util.PrincipalCache, repo dao.PrincipalRepository, eventBus *util.EventBus) *AuthService {
	return &AuthService{
		verifier: verifier,
		cache:    cache,
		repo:     repo,
		eventBus: eventBus,

		checkPassword: security.VerifyPassword,
	}
}

// Resolve turns a bearer token into an active principal. Identity failures
// are returned as *errors.AuthError; cache trouble never is. Any other error
// comes from the repository.
func (s *AuthService) Resolve(ctx context.Context, token string) (*model.Principal, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, echo_errors.Unauthorized(ReasonInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, echo_errors.Unauthorized(ReasonInvalidPayload, echo_errors.ErrSubjectMissing)
	}

	principal, hit := s.cache.Get(ctx, claims.Subject)
	if hit {
		logger.Debug("Principal resolved from cache", zap.String("name", claims.Subject))
	} else {
		principal, err = s.repo.FindByName(ctx, claims.Subject)
		if errors.Is(err, echo_errors.ErrPrincipalNotFound) {
			return nil, echo_errors.Unauthorized(ReasonPrincipalNotFound, err)
		}
		if err != nil {
			logger.Error("Failed to load principal", zap.Error(err), zap.String("name", claims.Subject))
			return nil, err
		}
		if !s.cache.Set(ctx, principal) {
			logger.Debug("Principal not cached", zap.String("name", principal.Name))
		}
	}

	if !principal.Active {
		return nil, echo_errors.Forbidden(ReasonInactiveAccount, echo_errors.ErrPrincipalInactive)
	}
	return principal, nil
}

// Login checks a password against the repository record and issues a token.
// The cache is not consulted so credential changes apply immediately.
func (s *AuthService) Login(ctx context.Context, name, password string) (*model.TokenResponse, error) {
	principal, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, echo_errors.ErrPrincipalNotFound) {
		// Spend the same bcrypt work as a real mismatch.
		s.checkPassword(password, security.DummyHash())
		s.publishLogin(ctx, name, false, "unknown principal")
		return nil, echo_errors.Unauthorized(ReasonInvalidCredentials, echo_errors.ErrInvalidCredentials)
	}
	if err != nil {
		logger.Error("Failed to load principal for login", zap.Error(err), zap.String("name", name))
		return nil, err
	}

	if !s.checkPassword(password, principal.CredentialHash) {
		s.publishLogin(ctx, name, false, "password mismatch")
		return nil, echo_errors.Unauthorized(ReasonInvalidCredentials, echo_errors.ErrInvalidCredentials)
	}
	if !principal.Active {
		s.publishLogin(ctx, name, false, "inactive account")
		return nil, echo_errors.Forbidden(ReasonInactiveAccount, echo_errors.ErrPrincipalInactive)
	}

	token, _, err := s.verifier.Issue(model.Claims{Subject: principal.Name, Role: principal.Role}, 0)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err), zap.String("name", name))
		return nil, err
	}

	s.publishLogin(ctx, name, true, "")
	logger.Info("Principal logged in", zap.String("name", name), zap.String("role", string(principal.Role)))

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.verifier.DefaultTTL().Seconds()),
	}, nil
}

func (s *AuthService) publishLogin(ctx context.Context, name string, granted bool, reason string) {
	event := util.Event{
		Type:    util.EventPrincipalLogin,
		Actor:   name,
		Subject: name,
		Granted: granted,
	}
	if !granted {
		event.Type = util.EventPrincipalLoginFailed
		event.Details = map[string]any{"reason": reason}
	}
	s.eventBus.Publish(ctx, event)
}
