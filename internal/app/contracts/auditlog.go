package contracts

import (
	"context"
	"screening-service/internal/app/models"
)

// AuditLogPublisher ships audit events to the confidential backend queue.
// Publishing is fire-and-forget from the core's perspective.
type AuditLogPublisher interface {
	Publish(ctx context.Context, event models.AuditEvent) error
}
