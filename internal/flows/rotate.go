package flows

import (
	"context"
	"errors"
	"time"

	"github.com/ethr-lab/tokenroll/token"
)

// RotateFailureKind classifies why a rotation did not complete.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	// RotateFailureNotFound: no record for the presented token.
	RotateFailureNotFound
	// RotateFailureReuse: the record was already invalid before this call.
	// The presented token was spent by an earlier rotation or revocation;
	// treat as a theft signal.
	RotateFailureReuse
	// RotateFailureExpired: the record was valid but past its logical
	// expiry. This call still flipped it, which is harmless.
	RotateFailureExpired
	// RotateFailureCorrupt: the stored payload could not be decoded.
	RotateFailureCorrupt
	// RotateFailureStore: Redis transport error, outcome unknown.
	RotateFailureStore
	// RotateFailureMint: the old token is invalidated but no replacement
	// could be minted. The session is terminally dead.
	RotateFailureMint
	// RotateFailurePersist: credentials were minted but the new record
	// could not be written. Terminal for the session, like Mint.
	RotateFailurePersist
)

// RotateDeps carries everything RunRotate touches.
type RotateDeps struct {
	Store  RecordStore
	Minter Minter

	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	// Detach strips cancellation from the context before minting and
	// persisting. Past the invalidate there is no way back, so the
	// remainder must not be abandoned mid-way just because the caller
	// hung up. Defaults to identity.
	Detach func(context.Context) context.Context
}

// RotateResult reports the outcome of one rotation attempt.
type RotateResult struct {
	Failure RotateFailureKind
	Err     error

	// SubjectID is set whenever a record was decoded, including on Reuse
	// and Expired failures, so callers can attribute the event.
	SubjectID string

	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RunRotate drives one rotation: atomically invalidate the presented
// token's record, judge the prior state, and on success mint and persist
// the replacement pair.
//
// The invalidate happens before any validity check. A losing concurrent
// caller finds the record already invalid and reports Reuse; the store
// primitive guarantees at most one caller ever observes it valid.
func RunRotate(ctx context.Context, presented string, deps RotateDeps) RotateResult {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	prev, err := deps.Store.InvalidateAndFetchPrevious(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrRecordNotFound):
			return RotateResult{Failure: RotateFailureNotFound, Err: err}
		case errors.Is(err, token.ErrRecordCorrupt):
			return RotateResult{Failure: RotateFailureCorrupt, Err: err}
		default:
			return RotateResult{Failure: RotateFailureStore, Err: err}
		}
	}

	if !prev.Valid {
		return RotateResult{Failure: RotateFailureReuse, SubjectID: prev.SubjectID}
	}
	if !prev.ExpiresAt.After(now()) {
		return RotateResult{Failure: RotateFailureExpired, SubjectID: prev.SubjectID}
	}

	// Point of no return: the old record is invalid. From here the flow
	// runs on a detached context so caller cancellation cannot leave the
	// subject with no usable token through a half-finished rotation.
	if deps.Detach != nil {
		ctx = deps.Detach(ctx)
	}

	access, err := deps.Minter.MintAccess(ctx, prev.SubjectID)
	if err != nil {
		return RotateResult{Failure: RotateFailureMint, SubjectID: prev.SubjectID, Err: err}
	}

	minted, err := deps.Minter.MintRefresh(ctx, prev.SubjectID)
	if err != nil {
		return RotateResult{Failure: RotateFailureMint, SubjectID: prev.SubjectID, Err: err}
	}

	rec := token.NewRecord(prev.SubjectID, minted.ExpiresAt)
	if err := deps.Store.Put(ctx, minted.Token, rec, minted.ExpiresAt.Sub(now())); err != nil {
		return RotateResult{Failure: RotateFailurePersist, SubjectID: prev.SubjectID, Err: err}
	}

	return RotateResult{
		SubjectID:        prev.SubjectID,
		AccessToken:      access,
		RefreshToken:     minted.Token,
		RefreshExpiresAt: minted.ExpiresAt,
	}
}
