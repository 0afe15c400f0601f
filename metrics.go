package tokenroll

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter. IDs are dense and stable; the
// exporters under metrics/export map them to wire names.
type MetricID uint16

const (
	// MetricIssueSuccess counts token pairs minted for fresh sign-ins.
	MetricIssueSuccess MetricID = iota
	// MetricIssueFailure counts Issue calls that produced no credentials.
	MetricIssueFailure
	// MetricRotateSuccess counts completed rotations.
	MetricRotateSuccess
	// MetricRotateFailure counts rotations rejected for any reason.
	MetricRotateFailure
	// MetricReuseDetected counts rotations that presented an already
	// invalidated token. Each hit is a theft signal.
	MetricReuseDetected
	// MetricTokenNotFound counts presentations of unknown tokens.
	MetricTokenNotFound
	// MetricTokenExpired counts presentations of logically expired tokens.
	MetricTokenExpired
	// MetricRecordCorrupt counts undecodable stored payloads.
	MetricRecordCorrupt
	// MetricStoreFailure counts Redis transport errors.
	MetricStoreFailure
	// MetricMintFailure counts credential minting errors after a
	// successful invalidate, i.e. terminated sessions.
	MetricMintFailure
	// MetricValidateSuccess counts read-only validations that passed.
	MetricValidateSuccess
	// MetricValidateFailure counts read-only validations that did not.
	MetricValidateFailure
	// MetricRevoke counts explicit revocations that removed a record.
	MetricRevoke
	// MetricRotateLatency is the rotation latency histogram.
	MetricRotateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so hot increments
// from different cores do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed-size, allocation-free counter block. All methods are
// safe for concurrent use.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of counter and histogram values.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter. No-op when disabled or out of range.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a rotation latency sample into the histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRotateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRotateLatency].buckets[i])
		}
		s.Histograms[MetricRotateLatency] = buckets
	}

	return s
}

// bucketIndex maps a latency to one of eight fixed millisecond buckets:
// <=5, <=10, <=25, <=50, <=100, <=250, <=500, +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
