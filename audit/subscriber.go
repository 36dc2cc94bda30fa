// audit/subscriber.go
package audit

import (
	"context"
	"encoding/json"

	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

var auditedEvents = []string{
	util.EventPrincipalLogin,
	util.EventPrincipalLoginFailed,
	util.EventPrincipalCreated,
	util.EventPrincipalActiveChanged,
	util.EventPrincipalInvalidated,
	util.EventPrincipalCacheCleared,
}

// Subscribe records every identity event published on bus.
func Subscribe(bus *util.EventBus, svc Service) {
	bus.Subscribe(func(ctx context.Context, event util.Event) error {
		return svc.LogAccess(ctx, FromEvent(event))
	}, auditedEvents...)
}

func FromEvent(event util.Event) AuditLog {
	log := AuditLog{
		Timestamp: event.OccurredAt,
		Actor:     event.Actor,
		Action:    event.Type,
		Principal: event.Subject,
		Granted:   event.Granted,
	}
	if len(event.Details) > 0 {
		if details, err := json.Marshal(event.Details); err == nil {
			log.Details = details
		}
	}
	return log
}
