// service/services.go
package service

import (
	"github.com/dev-mohitbeniwal/dataeng/api/audit"
	"github.com/dev-mohitbeniwal/dataeng/api/dao"
	"github.com/dev-mohitbeniwal/dataeng/api/security"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

type Services struct {
	Auth      IAuthService
	Principal IPrincipalService
}

// InitializeServices wires the services and their event subscribers.
func InitializeServices(
	verifier *security.CredentialVerifier,
	store dao.PrincipalStore,
	cache *util.PrincipalCache,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *Services {
	audit.Subscribe(eventBus, auditService)
	notificationSvc.Subscribe(eventBus)

	return &Services{
		Auth:      NewAuthService(verifier, cache, store, eventBus),
		Principal: NewPrincipalService(store, cache, auditService, validationUtil, eventBus),
	}
}
