package snapshot

import (
	"context"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

// RemoteSource is the narrow read surface the store needs from the data
// service. Both the PostgREST client and the direct-Postgres store satisfy it.
type RemoteSource interface {
	Select(ctx context.Context, table string, q remote.Query) ([]remote.Record, error)
	GetByID(ctx context.Context, table, id string) (remote.Record, error)
}

// Preferences is the locally persisted per-user state consulted at load time.
type Preferences interface {
	LastContractor(ctx context.Context, userID string) (string, error)
	SetLastContractor(ctx context.Context, userID, contractorID string) error
}
