package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts block traffic of a World.
//
// Metrics:
//   - mtblock_blocks_read_total, mtblock_blocks_written_total: counters
//   - mtblock_blocks_created_total: blocks synthesized for missing positions
//   - mtblock_nodes_set_total: counter
//   - mtblock_warnings_total{code}: codec warnings by code
//   - mtblock_block_decode_seconds: histogram
type Metrics struct {
	blocksRead    prometheus.Counter
	blocksWritten prometheus.Counter
	blocksCreated prometheus.Counter
	nodesSet      prometheus.Counter
	warnings      *prometheus.CounterVec
	decodeSeconds prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		blocksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mtblock",
			Name:      "blocks_read_total",
			Help:      "Map blocks read from the store.",
		}),
		blocksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mtblock",
			Name:      "blocks_written_total",
			Help:      "Map blocks written to the store.",
		}),
		blocksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mtblock",
			Name:      "blocks_created_total",
			Help:      "Empty map blocks created for positions with no stored block.",
		}),
		nodesSet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mtblock",
			Name:      "nodes_set_total",
			Help:      "Nodes replaced.",
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtblock",
			Name:      "warnings_total",
			Help:      "Warnings raised while decoding or encoding map blocks.",
		}, []string{"code"}),
		decodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mtblock",
			Name:      "block_decode_seconds",
			Help:      "Time spent decoding one map block.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
	}

	for _, c := range []prometheus.Collector{m.blocksRead, m.blocksWritten, m.blocksCreated, m.nodesSet, m.warnings, m.decodeSeconds} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}
