package flows

import (
	"context"
	"time"

	"github.com/ethr-lab/tokenroll/token"
)

// RecordStore is the slice of the token store the flows need.
type RecordStore interface {
	Get(ctx context.Context, tok string) (*token.Record, error)
	Put(ctx context.Context, tok string, rec *token.Record, ttl time.Duration) error
	InvalidateAndFetchPrevious(ctx context.Context, tok string) (*token.Record, error)
}

// MintedRefresh is a freshly drawn opaque refresh token with its expiry.
type MintedRefresh struct {
	Token     string
	ExpiresAt time.Time
}

// Minter produces the two halves of a credential pair.
type Minter interface {
	MintAccess(ctx context.Context, subjectID string) (string, error)
	MintRefresh(ctx context.Context, subjectID string) (MintedRefresh, error)
}
