// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// AuditLog is one authentication or administrative event.
type AuditLog struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor,omitempty"`
	Action    string          `json:"action"`
	Principal string          `json:"principal,omitempty"`
	Granted   bool            `json:"granted"`
	Details   json.RawMessage `json:"details,omitempty"`
}
