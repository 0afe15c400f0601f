package tokenroll

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethr-lab/tokenroll/internal/flows"
	"github.com/ethr-lab/tokenroll/token"
)

// Engine is the refresh-token lifecycle engine. Construct via the Builder;
// all methods are safe for concurrent use.
type Engine struct {
	config  Config
	store   *token.Store
	minter  Minter
	metrics *Metrics
	audit   *auditDispatcher
	closed  atomic.Bool
}

// minterAdapter bridges the public Minter interface into the flows layer.
type minterAdapter struct {
	m Minter
}

func (a minterAdapter) MintAccess(ctx context.Context, subjectID string) (string, error) {
	return a.m.MintAccessToken(ctx, subjectID)
}

func (a minterAdapter) MintRefresh(ctx context.Context, subjectID string) (flows.MintedRefresh, error) {
	issue, err := a.m.MintRefreshToken(ctx, subjectID)
	if err != nil {
		return flows.MintedRefresh{}, err
	}
	return flows.MintedRefresh{Token: issue.Token, ExpiresAt: issue.ExpiresAt}, nil
}

// Issue mints a credential pair for a subject that just authenticated
// through some outer flow (password, OAuth, whatever). It starts a fresh
// rotation chain; nothing existing is touched.
func (e *Engine) Issue(ctx context.Context, subjectID string) (*TokenPair, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if subjectID == "" {
		e.metricInc(MetricIssueFailure)
		return nil, fmt.Errorf("%w: empty subject", ErrMintingFailed)
	}

	res := flows.RunIssue(ctx, subjectID, flows.IssueDeps{
		Store:  e.store,
		Minter: minterAdapter{e.minter},
	})

	switch res.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailureMint:
		e.metricInc(MetricIssueFailure)
		e.metricInc(MetricMintFailure)
		err := fmt.Errorf("%w: %v", ErrMintingFailed, res.Err)
		e.emitAudit(ctx, auditEventIssueFailure, false, subjectID, err, nil)
		return nil, err
	case flows.IssueFailurePersist:
		e.metricInc(MetricIssueFailure)
		e.metricInc(MetricStoreFailure)
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		e.emitAudit(ctx, auditEventIssueFailure, false, subjectID, err, nil)
		return nil, err
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventIssueSuccess, true, subjectID, nil, nil)

	return &TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

// Rotate exchanges a presented refresh token for a fresh pair. The
// presented token is invalidated first, atomically, whatever else happens:
// a rejected or failed rotation never leaves it spendable again.
//
// ErrTokenInvalidated from here means the token was already spent — either
// the client replayed an old token after a lost response, or someone else
// is holding a stolen copy. Callers should treat it as a signal to kill
// the subject's sessions, not as a retry hint.
func (e *Engine) Rotate(ctx context.Context, presented string) (*TokenPair, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if presented == "" {
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricTokenNotFound)
		return nil, fmt.Errorf("%w: empty token", ErrTokenNotFound)
	}

	start := time.Now()

	res := flows.RunRotate(ctx, presented, flows.RotateDeps{
		Store:  e.store,
		Minter: minterAdapter{e.minter},
		Detach: context.WithoutCancel,
	})

	switch res.Failure {
	case flows.RotateFailureNone:

	case flows.RotateFailureNotFound:
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricTokenNotFound)
		e.emitAudit(ctx, auditEventRotateFailure, false, "", ErrTokenNotFound, nil)
		return nil, ErrTokenNotFound

	case flows.RotateFailureReuse:
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricReuseDetected)
		e.emitAudit(ctx, auditEventReuseDetected, false, res.SubjectID, ErrTokenInvalidated, nil)
		return nil, ErrTokenInvalidated

	case flows.RotateFailureExpired:
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricTokenExpired)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.SubjectID, ErrTokenExpired, nil)
		return nil, ErrTokenExpired

	case flows.RotateFailureCorrupt:
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricRecordCorrupt)
		err := fmt.Errorf("%w: %v", ErrRecordCorrupt, res.Err)
		e.emitAudit(ctx, auditEventRotateFailure, false, "", err, nil)
		return nil, err

	case flows.RotateFailureStore:
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricStoreFailure)
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		e.emitAudit(ctx, auditEventStoreFailure, false, "", err, nil)
		return nil, err

	case flows.RotateFailureMint, flows.RotateFailurePersist:
		// The old token is gone and no replacement exists. Surface as a
		// minting failure so the caller re-authenticates the subject.
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricMintFailure)
		err := fmt.Errorf("%w: %v", ErrMintingFailed, res.Err)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.SubjectID, err, func() map[string]string {
			return map[string]string{"session_terminal": "true"}
		})
		return nil, err
	}

	e.metricInc(MetricRotateSuccess)
	e.metrics.Observe(MetricRotateLatency, time.Since(start))
	e.emitAudit(ctx, auditEventRotateSuccess, true, res.SubjectID, nil, nil)

	return &TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

// Validate checks a refresh token without consuming it and returns the
// subject it belongs to. Rotation never calls this; it exists for
// introspection surfaces.
func (e *Engine) Validate(ctx context.Context, presented string) (string, error) {
	if e.closed.Load() {
		return "", ErrEngineClosed
	}
	if presented == "" {
		e.metricInc(MetricValidateFailure)
		return "", fmt.Errorf("%w: empty token", ErrTokenNotFound)
	}

	res := flows.RunValidate(ctx, presented, flows.ValidateDeps{Store: e.store})

	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return res.SubjectID, nil
	case flows.ValidateFailureNotFound:
		e.metricInc(MetricValidateFailure)
		return "", ErrTokenNotFound
	case flows.ValidateFailureInvalidated:
		e.metricInc(MetricValidateFailure)
		return "", ErrTokenInvalidated
	case flows.ValidateFailureExpired:
		e.metricInc(MetricValidateFailure)
		return "", ErrTokenExpired
	case flows.ValidateFailureCorrupt:
		e.metricInc(MetricValidateFailure)
		e.metricInc(MetricRecordCorrupt)
		return "", fmt.Errorf("%w: %v", ErrRecordCorrupt, res.Err)
	default:
		e.metricInc(MetricValidateFailure)
		e.metricInc(MetricStoreFailure)
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	}
}

// Revoke deletes a refresh token's record outright (logout). Reports
// whether a record existed. Deleting rather than invalidating means a
// later presentation reads as not-found, not as theft.
func (e *Engine) Revoke(ctx context.Context, presented string) (bool, error) {
	if e.closed.Load() {
		return false, ErrEngineClosed
	}
	if presented == "" {
		return false, nil
	}

	existed, err := e.store.Delete(ctx, presented)
	if err != nil {
		e.metricInc(MetricStoreFailure)
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, auditEventStoreFailure, false, "", wrapped, nil)
		return false, wrapped
	}
	if existed {
		e.metricInc(MetricRevoke)
		e.emitAudit(ctx, auditEventTokenRevoked, true, "", nil, nil)
	}
	return existed, nil
}

// Ping checks store connectivity and returns round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	d, err := e.store.Ping(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped returns how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close flushes the audit pipeline and marks the engine unusable.
// Idempotent.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}
	e.audit.Close()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}
