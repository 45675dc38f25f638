package claimer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BridgeIsUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "bridge",
		Name:      "is_up",
		Help:      "Whether the chain's native bridge produced a fresh proof recently.",
	}, []string{"chain_id", "chain_name", "stack"})
	TimeSinceLastProof = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "bridge",
		Name:      "time_since_last_proof_seconds",
		Help:      "Seconds since the last observed proof on the chain's native bridge.",
	}, []string{"chain_id", "chain_name", "stack"})
	LastProofBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "bridge",
		Name:      "last_proof_block",
		Help:      "Block number of the last observed proof.",
	}, []string{"chain_id", "chain_name", "stack"})
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimer",
		Subsystem: "driver",
		Name:      "submissions_total",
		Help:      "Relay execution api submissions by action and outcome.",
	}, []string{"action", "success"})
	DebtDesync = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "audit",
		Name:      "debt_desync",
		Help:      "Absolute difference between the pool's global debt and the sum of per-origin debts.",
	}, []string{"pool_chain_id", "pool_address"})
	StuckDebt = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "audit",
		Name:      "stuck_debt",
		Help:      "Outstanding debt of origins whose last claim left an unsettled remainder.",
	}, []string{"pool_chain_id", "pool_address", "origin_chain_id", "origin_bridge"})
	IndexDebtDrift = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "audit",
		Name:      "index_debt_drift",
		Help:      "Absolute difference between the local ledger debt and the indexer's view.",
	}, []string{"pool_chain_id", "pool_address"})
)
