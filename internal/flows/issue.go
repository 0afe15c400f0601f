package flows

import (
	"context"
	"time"

	"github.com/ethr-lab/tokenroll/token"
)

// IssueFailureKind classifies why an issuance did not complete.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureMint
	IssueFailurePersist
)

// IssueDeps carries everything RunIssue touches.
type IssueDeps struct {
	Store  RecordStore
	Minter Minter
	Now    func() time.Time
}

// IssueResult reports the outcome of one issuance.
type IssueResult struct {
	Failure IssueFailureKind
	Err     error

	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RunIssue mints a fresh credential pair for an authenticated subject and
// persists the refresh record. Nothing is invalidated; issuance starts a
// new chain rather than extending one.
func RunIssue(ctx context.Context, subjectID string, deps IssueDeps) IssueResult {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	access, err := deps.Minter.MintAccess(ctx, subjectID)
	if err != nil {
		return IssueResult{Failure: IssueFailureMint, Err: err}
	}

	minted, err := deps.Minter.MintRefresh(ctx, subjectID)
	if err != nil {
		return IssueResult{Failure: IssueFailureMint, Err: err}
	}

	rec := token.NewRecord(subjectID, minted.ExpiresAt)
	if err := deps.Store.Put(ctx, minted.Token, rec, minted.ExpiresAt.Sub(now())); err != nil {
		return IssueResult{Failure: IssueFailurePersist, Err: err}
	}

	return IssueResult{
		AccessToken:      access,
		RefreshToken:     minted.Token,
		RefreshExpiresAt: minted.ExpiresAt,
	}
}
