package service

import (
	"context"

	"marketsync/pkg/stream"
)

// SessionSource publishes the uid of the signed-in user, or "" when signed
// out. Each Subscribe opens one subscription that starts with the current
// state.
type SessionSource interface {
	Subscribe(ctx context.Context) *stream.Stream[string]
}
