package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRead(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, m)

	m.ObserveRead("partitioned", time.Now())
	m.ObserveRead("partitioned", time.Now())
	m.ObserveRead("sequential", time.Now())

	require.Equal(t, float64(2), testutil.ToFloat64(m.Reads.WithLabelValues("partitioned")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Reads.WithLabelValues("sequential")))
}

func TestMetrics_ObserveChunk(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveChunk(100)
	m.ObserveChunk(50)

	require.Equal(t, float64(2), testutil.ToFloat64(m.ChunksParsed))
	require.Equal(t, float64(150), testutil.ToFloat64(m.BytesParsed))
}

func TestMetrics_Fallbacks(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFallback("chunksize")
	require.Equal(t, float64(1), testutil.ToFloat64(m.Fallbacks.WithLabelValues("chunksize")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRead("partitioned", time.Now())
	m.ObserveFallback("reader")
	m.ObserveChunk(1)
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	// Vec families only show up once a label set exists
	m.Reads.WithLabelValues("test").Add(0)
	m.Fallbacks.WithLabelValues("test").Add(0)
	m.ReadSeconds.WithLabelValues("test").Observe(0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 5)
}
