package full_node

import (
	"errors"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// Metrics exported by a full node.
type Metrics struct {
	BlocksAccepted prometheus.Counter
	// Labeled by rejection reason.
	BlocksRejected *prometheus.CounterVec
	TxsAdmitted    prometheus.Counter
	// Labeled by rejection reason.
	TxsRejected *prometheus.CounterVec
	ChainHeight prometheus.Gauge
	PoolSize    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_accepted_total",
			Help:      "Blocks appended to the chain.",
		}),
		BlocksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_rejected_total",
			Help:      "Blocks refused by the ledger.",
		}, []string{"reason"}),
		TxsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_admitted_total",
			Help:      "Transactions staged in the pool.",
		}),
		TxsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_rejected_total",
			Help:      "Transactions refused at admission.",
		}, []string{"reason"}),
		ChainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Height of the chain tail, genesis is 0.",
		}),
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_size",
			Help:      "Transactions waiting in the pool.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.BlocksAccepted, m.BlocksRejected, m.TxsAdmitted, m.TxsRejected, m.ChainHeight, m.PoolSize,
		)
	}
	return m
}

// reason maps an error of the ledger taxonomy to a metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, model.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, model.ErrTransactionReplayed):
		return "replayed"
	case errors.Is(err, model.ErrMempoolFull):
		return "pool_full"
	case errors.Is(err, model.ErrChainLinkageMismatch):
		return "linkage"
	case errors.Is(err, model.ErrInvalidMerkleRoot):
		return "merkle_root"
	case errors.Is(err, model.ErrUnknownOrSpentInput):
		return "unknown_input"
	case errors.Is(err, model.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "other"
	}
}
