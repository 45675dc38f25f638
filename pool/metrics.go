package pool

import (
	"math/big"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OutstandingDebtGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "pool",
		Name:      "outstanding_debt",
		Help:      "Total outstanding debt of the pool across all origins.",
	}, []string{"pool_chain_id", "pool_address"})
	OriginDebtGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "pool",
		Name:      "origin_outstanding_debt",
		Help:      "Outstanding debt attributed to a single origin.",
	}, []string{"pool_chain_id", "pool_address", "origin_chain_id", "origin_bridge"})
	AccruedFeesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claimer",
		Subsystem: "pool",
		Name:      "accrued_fees",
		Help:      "Bridge fees accrued by the pool since start.",
	}, []string{"pool_chain_id", "pool_address"})
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimer",
		Subsystem: "pool",
		Name:      "processed_messages_total",
		Help:      "Number of loan messages consumed, by handler path.",
	}, []string{"pool_chain_id", "pool_address", "path"})
	ClaimsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimer",
		Subsystem: "pool",
		Name:      "claims_total",
		Help:      "Number of settled claims per origin.",
	}, []string{"pool_chain_id", "pool_address", "origin_chain_id", "origin_bridge"})
)

func gaugeValue(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// recordDebtMetrics refreshes the debt gauges. Callers hold the pool mutex.
func (p *Pool) recordDebtMetrics() {
	poolChainID := strconv.FormatUint(p.cfg.ChainID, 10)
	poolAddress := p.cfg.Address.String()
	OutstandingDebtGauge.
		WithLabelValues(poolChainID, poolAddress).
		Set(gaugeValue(p.outstandingDebt))
	AccruedFeesGauge.
		WithLabelValues(poolChainID, poolAddress).
		Set(gaugeValue(p.accruedFees))
	for key, o := range p.origins {
		OriginDebtGauge.
			WithLabelValues(poolChainID, poolAddress, strconv.FormatUint(key.ChainID, 10), key.Bridge.String()).
			Set(gaugeValue(o.outstandingDebt))
	}
}
