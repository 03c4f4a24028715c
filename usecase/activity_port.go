package usecase

import (
	"context"

	"github.com/taskdeck/backend/domain"
)

// ActivityRecorder abstracts the audit trail so use cases stay storage-agnostic.
// Recording is best-effort: implementations must never fail the calling request.
type ActivityRecorder interface {
	Record(ctx context.Context, entry domain.Activity)
	Recent(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
}
