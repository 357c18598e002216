package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for reads. A nil *Metrics records nothing.
type Metrics struct {
	Reads        *prometheus.CounterVec
	Fallbacks    *prometheus.CounterVec
	ChunksParsed prometheus.Counter
	BytesParsed  prometheus.Counter
	ReadSeconds  *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "splitread_reads_total",
		Help: "Total reads by route",
	}, []string{"route"})

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "splitread_fallbacks_total",
		Help: "Total reads routed to the sequential reader by reason",
	}, []string{"reason"})

	chunksParsed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "splitread_chunks_parsed_total",
		Help: "Total byte range chunks parsed",
	})

	bytesParsed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "splitread_bytes_parsed_total",
		Help: "Total decompressed bytes parsed by chunk tasks",
	})

	readSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitread_read_seconds",
		Help:    "Read latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	reg.MustRegister(reads, fallbacks, chunksParsed, bytesParsed, readSeconds)

	return &Metrics{
		Reads:        reads,
		Fallbacks:    fallbacks,
		ChunksParsed: chunksParsed,
		BytesParsed:  bytesParsed,
		ReadSeconds:  readSeconds,
	}
}

func (m *Metrics) ObserveRead(route string, started time.Time) {
	if m == nil {
		return
	}
	m.Reads.WithLabelValues(route).Inc()
	m.ReadSeconds.WithLabelValues(route).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveChunk(bytes int64) {
	if m == nil {
		return
	}
	m.ChunksParsed.Inc()
	m.BytesParsed.Add(float64(bytes))
}
