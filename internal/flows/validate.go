package flows

import (
	"context"
	"errors"
	"time"

	"github.com/ethr-lab/tokenroll/token"
)

// ValidateFailureKind classifies why a read-only validation rejected.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureNotFound
	ValidateFailureInvalidated
	ValidateFailureExpired
	ValidateFailureCorrupt
	ValidateFailureStore
)

// ValidateDeps carries everything RunValidate touches.
type ValidateDeps struct {
	Store RecordStore
	Now   func() time.Time
}

// ValidateResult reports the outcome of a validation.
type ValidateResult struct {
	Failure   ValidateFailureKind
	Err       error
	SubjectID string
	ExpiresAt time.Time
}

// RunValidate checks a refresh token without consuming it. Rotation never
// goes through here; this exists for introspection endpoints that need to
// answer "is this session still alive" with no side effects.
func RunValidate(ctx context.Context, presented string, deps ValidateDeps) ValidateResult {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	rec, err := deps.Store.Get(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrRecordNotFound):
			return ValidateResult{Failure: ValidateFailureNotFound, Err: err}
		case errors.Is(err, token.ErrRecordCorrupt):
			return ValidateResult{Failure: ValidateFailureCorrupt, Err: err}
		default:
			return ValidateResult{Failure: ValidateFailureStore, Err: err}
		}
	}

	if !rec.Valid {
		return ValidateResult{Failure: ValidateFailureInvalidated, SubjectID: rec.SubjectID}
	}
	if !rec.ExpiresAt.After(now()) {
		return ValidateResult{Failure: ValidateFailureExpired, SubjectID: rec.SubjectID}
	}

	return ValidateResult{SubjectID: rec.SubjectID, ExpiresAt: rec.ExpiresAt}
}
