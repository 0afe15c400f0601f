// Package internaldefs maps engine metric IDs onto stable wire names
// shared by the Prometheus and OTel exporters.
package internaldefs

import (
	tokenroll "github.com/ethr-lab/tokenroll"
)

// CounterDef binds one engine counter to its exported name.
type CounterDef struct {
	ID   tokenroll.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported name.
type HistogramDef struct {
	ID   tokenroll.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: tokenroll.MetricIssueSuccess, Name: "tokenroll_issue_success_total", Help: "Credential pairs minted for fresh sign-ins."},
	{ID: tokenroll.MetricIssueFailure, Name: "tokenroll_issue_failure_total", Help: "Failed issuance attempts."},
	{ID: tokenroll.MetricRotateSuccess, Name: "tokenroll_rotate_success_total", Help: "Completed refresh-token rotations."},
	{ID: tokenroll.MetricRotateFailure, Name: "tokenroll_rotate_failure_total", Help: "Rejected or failed rotations."},
	{ID: tokenroll.MetricReuseDetected, Name: "tokenroll_reuse_detected_total", Help: "Rotations presenting an already invalidated token."},
	{ID: tokenroll.MetricTokenNotFound, Name: "tokenroll_token_not_found_total", Help: "Presentations of unknown tokens."},
	{ID: tokenroll.MetricTokenExpired, Name: "tokenroll_token_expired_total", Help: "Presentations of logically expired tokens."},
	{ID: tokenroll.MetricRecordCorrupt, Name: "tokenroll_record_corrupt_total", Help: "Undecodable stored payloads."},
	{ID: tokenroll.MetricStoreFailure, Name: "tokenroll_store_failure_total", Help: "Redis transport errors."},
	{ID: tokenroll.MetricMintFailure, Name: "tokenroll_mint_failure_total", Help: "Minting errors after invalidation, i.e. terminated sessions."},
	{ID: tokenroll.MetricValidateSuccess, Name: "tokenroll_validate_success_total", Help: "Read-only validations that passed."},
	{ID: tokenroll.MetricValidateFailure, Name: "tokenroll_validate_failure_total", Help: "Read-only validations that rejected."},
	{ID: tokenroll.MetricRevoke, Name: "tokenroll_revoke_total", Help: "Explicit revocations that removed a record."},
}

var HistogramDefs = []HistogramDef{
	{ID: tokenroll.MetricRotateLatency, Name: "tokenroll_rotate_latency_seconds", Help: "Rotation latency histogram."},
}

// HistogramBounds are the eight bucket upper bounds in seconds, matching
// the engine's fixed millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix spells each bound in instrument-name-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// eight-bucket shape.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
