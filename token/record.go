package token

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the persisted state of one refresh token. The opaque token
// string itself is the store key and never appears inside the record.
type Record struct {
	SubjectID string    `json:"subjectId"`
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewRecord returns a live record for subjectID expiring at expiresAt.
func NewRecord(subjectID string, expiresAt time.Time) *Record {
	return &Record{
		SubjectID: subjectID,
		Valid:     true,
		ExpiresAt: expiresAt.UTC(),
	}
}

// IsUsable reports whether the record is live at the given instant: still
// marked valid and not past its logical expiry.
func (r *Record) IsUsable(now time.Time) bool {
	return r != nil && r.Valid && r.ExpiresAt.After(now)
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(r *Record) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", ErrRecordCorrupt)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	return data, nil
}

// DecodeRecord parses a stored payload. A payload that does not decode, or
// decodes without a subject or expiry, is corrupt: validity can no longer
// be judged, so the caller must fail closed.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if r.SubjectID == "" || r.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: missing subject or expiry", ErrRecordCorrupt)
	}
	return &r, nil
}
