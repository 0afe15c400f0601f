package tokenroll

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/ethr-lab/tokenroll/internal/audit"
)

// AuditEvent is one structured record of an engine decision.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher. Implementations must be safe for concurrent use.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// io.Writer, one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

const (
	auditEventIssueSuccess  = "issue_success"
	auditEventIssueFailure  = "issue_failure"
	auditEventRotateSuccess = "rotate_success"
	auditEventRotateFailure = "rotate_failure"
	auditEventReuseDetected = "token_reuse_detected"
	auditEventTokenRevoked  = "token_revoked"
	auditEventStoreFailure  = "store_failure"
)

// AuditErrorCode is the stable machine-readable error tag carried in an
// event's Error field.
type AuditErrorCode string

const (
	auditErrTokenNotFound    AuditErrorCode = "token_not_found"
	auditErrTokenInvalidated AuditErrorCode = "token_invalidated"
	auditErrTokenExpired     AuditErrorCode = "token_expired"
	auditErrRecordCorrupt    AuditErrorCode = "record_corrupt"
	auditErrMintingFailed    AuditErrorCode = "minting_failed"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		RequestID: requestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenNotFound):
		return auditErrTokenNotFound
	case errors.Is(err, ErrTokenInvalidated):
		return auditErrTokenInvalidated
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrRecordCorrupt):
		return auditErrRecordCorrupt
	case errors.Is(err, ErrMintingFailed):
		return auditErrMintingFailed
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
