package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service records audit entries. Writes are best-effort: callers ignore
// the returned error on hot paths and it is logged instead.
type Service interface {
	AuditLog(ctx context.Context, actorID *snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error
}
