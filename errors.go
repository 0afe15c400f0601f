package tokenroll

import "errors"

// Sentinel errors returned by Engine operations. Callers branch with
// errors.Is; wrapped variants carry the underlying cause in their message.
var (
	// ErrTokenNotFound means the presented refresh token has no record in
	// the store: it was never issued here, was revoked, or its TTL elapsed
	// and Redis reaped it.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenInvalidated means the record exists but was already flipped
	// invalid by an earlier rotation or revocation. Seeing this on Rotate
	// is the reuse signal: someone presented a token that was already
	// spent.
	ErrTokenInvalidated = errors.New("refresh token already invalidated")

	// ErrTokenExpired means the record is past its logical expiry even
	// though Redis has not reaped it yet.
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrStoreUnavailable wraps Redis transport failures. The outcome of
	// the attempted operation is unknown.
	ErrStoreUnavailable = errors.New("token store unavailable")

	// ErrMintingFailed means new credentials could not be produced after
	// the presented token was already invalidated. The session cannot be
	// resumed; the subject must re-authenticate.
	ErrMintingFailed = errors.New("token minting failed")

	// ErrRecordCorrupt means the stored payload could not be decoded as a
	// token record.
	ErrRecordCorrupt = errors.New("token record corrupt")

	// ErrEngineClosed is returned once Close has been called.
	ErrEngineClosed = errors.New("engine closed")
)
