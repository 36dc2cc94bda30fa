// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
)

// NotificationService tells operators about account changes. Delivery is a
// log line for now.
type NotificationService struct {
	notify func(msg string, fields ...zap.Field)
}

func NewNotificationService() *NotificationService {
	return &NotificationService{notify: logger.Info}
}

// Subscribe registers the service for the events operators care about.
func (n *NotificationService) Subscribe(bus *EventBus) {
	bus.Subscribe(n.handleEvent,
		EventPrincipalCreated,
		EventPrincipalActiveChanged,
		EventPrincipalLoginFailed,
	)
}

func (n *NotificationService) handleEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case EventPrincipalCreated:
		return n.NotifyPrincipalChange(ctx, "created", event.Subject, event.Actor)
	case EventPrincipalActiveChanged:
		change := "deactivated"
		if active, _ := event.Details["active"].(bool); active {
			change = "activated"
		}
		return n.NotifyPrincipalChange(ctx, change, event.Subject, event.Actor)
	case EventPrincipalLoginFailed:
		reason, _ := event.Details["reason"].(string)
		n.notify("NOTIFICATION: Failed login",
			zap.String("principal", event.Subject),
			zap.String("reason", reason))
		return nil
	default:
		return nil
	}
}

func (n *NotificationService) NotifyPrincipalChange(ctx context.Context, changeType, name, actor string) error {
	switch changeType {
	case "created":
		n.notify("NOTIFICATION: New principal created",
			zap.String("principal", name),
			zap.String("actor", actor))
	case "activated":
		n.notify("NOTIFICATION: Principal activated",
			zap.String("principal", name),
			zap.String("actor", actor))
	case "deactivated":
		n.notify("NOTIFICATION: Principal deactivated",
			zap.String("principal", name),
			zap.String("actor", actor))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}
	return nil
}
