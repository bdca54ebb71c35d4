package tyrant

import (
	"errors"
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// covering 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks per-operation call counts, byte counts, errors, and
// latency for a Client, adapted from the teacher's block-I/O Metrics to
// count protocol operations instead of Read/Write/Discard/Flush.
type Metrics struct {
	GetOps   atomic.Uint64
	PutOps   atomic.Uint64
	OutOps   atomic.Uint64
	MiscOps  atomic.Uint64 // every operation not covered above

	BytesSent     atomic.Uint64
	BytesReceived atomic.Uint64

	Errors         atomic.Uint64
	ProtocolErrors atomic.Uint64
	FramingErrors  atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordOp records one completed operation. kind selects which op
// counter to bump; err classifies the failure, if any.
func (m *Metrics) RecordOp(kind OpKind, sent, received uint64, latencyNs uint64, err error) {
	switch kind {
	case OpKindGet:
		m.GetOps.Add(1)
	case OpKindPut:
		m.PutOps.Add(1)
	case OpKindOut:
		m.OutOps.Add(1)
	default:
		m.MiscOps.Add(1)
	}
	m.BytesSent.Add(sent)
	m.BytesReceived.Add(received)
	if err != nil {
		m.Errors.Add(1)
		var te *Error
		if errors.As(err, &te) {
			switch te.Kind {
			case KindProtocol:
				m.ProtocolErrors.Add(1)
			case KindFraming:
				m.FramingErrors.Add(1)
			}
		}
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// OpKind classifies which counter RecordOp bumps.
type OpKind int

const (
	OpKindGet OpKind = iota
	OpKindPut
	OpKindOut
	OpKindOther
)

// MetricsSnapshot is a point-in-time copy of Metrics with derived stats.
type MetricsSnapshot struct {
	GetOps, PutOps, OutOps, MiscOps uint64
	BytesSent, BytesReceived        uint64
	Errors, ProtocolErrors, FramingErrors uint64

	TotalOps     uint64
	AvgLatencyNs uint64
	UptimeNs     uint64
	OpsPerSecond float64
	ErrorRate    float64

	LatencyP50Ns, LatencyP99Ns, LatencyP999Ns uint64
	LatencyHistogram                          [numLatencyBuckets]uint64
}

// Snapshot computes a MetricsSnapshot from the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		GetOps:         m.GetOps.Load(),
		PutOps:         m.PutOps.Load(),
		OutOps:         m.OutOps.Load(),
		MiscOps:        m.MiscOps.Load(),
		BytesSent:      m.BytesSent.Load(),
		BytesReceived:  m.BytesReceived.Load(),
		Errors:         m.Errors.Load(),
		ProtocolErrors: m.ProtocolErrors.Load(),
		FramingErrors:  m.FramingErrors.Load(),
	}
	snap.TotalOps = snap.GetOps + snap.PutOps + snap.OutOps + snap.MiscOps

	opCount := m.OpCount.Load()
	totalLatency := m.TotalLatencyNs.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatency / opCount
	}

	snap.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())
	if snap.UptimeNs > 0 {
		snap.OpsPerSecond = float64(snap.TotalOps) / (float64(snap.UptimeNs) / 1e9)
	}
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(snap.Errors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}
	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) by linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters, useful for tests.
func (m *Metrics) Reset() {
	m.GetOps.Store(0)
	m.PutOps.Store(0)
	m.OutOps.Store(0)
	m.MiscOps.Store(0)
	m.BytesSent.Store(0)
	m.BytesReceived.Store(0)
	m.Errors.Store(0)
	m.ProtocolErrors.Store(0)
	m.FramingErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := range m.LatencyBuckets {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
}

// Observer lets callers plug in their own metrics collection, mirroring
// the teacher's Observer interface with protocol-operation verbs instead
// of block-I/O verbs.
type Observer interface {
	ObserveOp(kind OpKind, sent, received uint64, latencyNs uint64, err error)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveOp(OpKind, uint64, uint64, uint64, error) {}

// MetricsObserver implements Observer by recording into a *Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver wraps m as an Observer.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveOp(kind OpKind, sent, received uint64, latencyNs uint64, err error) {
	o.metrics.RecordOp(kind, sent, received, latencyNs, err)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
