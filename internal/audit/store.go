package audit

import (
	"context"

	"proofgate/pkg/domain"
)

// Store persists audit events. The trail is append-only: events are never
// updated or deleted.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor domain.Address) ([]Event, error)
}
