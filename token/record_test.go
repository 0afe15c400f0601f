package token

import (
	"errors"
	"testing"
	"time"
)

func TestRecordIsUsable(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		rec  *Record
		want bool
	}{
		{"live", NewRecord("alice", now.Add(time.Hour)), true},
		{"nil", nil, false},
		{"invalidated", &Record{SubjectID: "alice", Valid: false, ExpiresAt: now.Add(time.Hour)}, false},
		{"expired", &Record{SubjectID: "alice", Valid: true, ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", &Record{SubjectID: "alice", Valid: true, ExpiresAt: now}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.IsUsable(now); got != tc.want {
				t.Fatalf("IsUsable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecordCodecRoundTrip(t *testing.T) {
	rec := NewRecord("alice", time.Now().Add(time.Hour))

	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}

	got, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if got.SubjectID != rec.SubjectID || got.Valid != rec.Valid || !got.ExpiresAt.Equal(rec.ExpiresAt) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestDecodeRecordRejectsCorruptPayloads(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "not-json"},
		{"wrong type", `{"subjectId":42,"valid":true,"expiresAt":"2030-01-01T00:00:00Z"}`},
		{"missing subject", `{"valid":true,"expiresAt":"2030-01-01T00:00:00Z"}`},
		{"missing expiry", `{"subjectId":"alice","valid":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeRecord([]byte(tc.data)); !errors.Is(err, ErrRecordCorrupt) {
				t.Fatalf("expected ErrRecordCorrupt, got %v", err)
			}
		})
	}
}
