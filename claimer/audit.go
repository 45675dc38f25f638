package claimer

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relayprotocol/vault-claimer/logging"
	"github.com/relayprotocol/vault-claimer/pool"
	"github.com/relayprotocol/vault-claimer/utils"
	"github.com/relayprotocol/vault-claimer/vaultindex"
)

// AuditJob periodically re-checks the ledger bookkeeping that claims and
// corrections are supposed to preserve and exports what it finds. It never
// mutates state.
type AuditJob struct {
	logger   logging.Logger
	Interval time.Duration
	Timeout  time.Duration
	index    vaultindex.Client
	pools    map[PoolKey]*pool.Pool
}

func NewAuditJob(logger logging.Logger, index vaultindex.Client, pools map[PoolKey]*pool.Pool) *AuditJob {
	return &AuditJob{
		logger:   logger,
		Interval: 5 * time.Minute,
		Timeout:  30 * time.Second,
		index:    index,
		pools:    pools,
	}
}

func (j *AuditJob) Start(ctx context.Context) {
	j.logger.WithField("interval", j.Interval).Info("starting debt audit job")
	for {
		timeoutCtx, cancel := context.WithTimeout(ctx, j.Timeout)
		j.RunOnce(timeoutCtx)
		cancel()
		if utils.ContextSleep(ctx, j.Interval) == nil {
			return
		}
	}
}

func (j *AuditJob) RunOnce(ctx context.Context) {
	for key, p := range j.pools {
		poolChainID := strconv.FormatUint(key.ChainID, 10)
		poolAddress := key.Address.String()

		global, sum, ok := p.AuditDebt()
		desync := new(big.Int).Sub(global, sum)
		desync.Abs(desync)
		DebtDesync.WithLabelValues(poolChainID, poolAddress).Set(gaugeValue(desync))
		if !ok {
			j.logger.WithFields(logrus.Fields{
				"pool_chain_id": key.ChainID,
				"pool_address":  key.Address,
				"global_debt":   global,
				"sum_of_debts":  sum,
			}).Error("pool debt ledger is desynced")
		}

		for _, origin := range p.Origins() {
			if origin.OutstandingDebt.Sign() > 0 && origin.LastClaimedAt != nil {
				StuckDebt.WithLabelValues(poolChainID, poolAddress,
					strconv.FormatUint(origin.ChainID, 10), origin.Bridge.String()).
					Set(gaugeValue(origin.OutstandingDebt))
				j.logger.WithFields(logrus.Fields{
					"pool_chain_id":    key.ChainID,
					"pool_address":     key.Address,
					"origin_chain_id":  origin.ChainID,
					"origin_bridge":    origin.Bridge,
					"outstanding_debt": origin.OutstandingDebt,
					"last_claimed_at":  origin.LastClaimedAt,
				}).Warn("origin carries debt past its last claim")
			}
		}

		indexDebt, err := j.index.PoolOutstandingDebt(ctx, key.ChainID, key.Address)
		if err != nil {
			j.logger.WithError(err).WithFields(logrus.Fields{
				"pool_chain_id": key.ChainID,
				"pool_address":  key.Address,
			}).Warn("can't fetch indexed pool debt")
			continue
		}
		drift := new(big.Int).Sub(global, indexDebt)
		drift.Abs(drift)
		IndexDebtDrift.WithLabelValues(poolChainID, poolAddress).Set(gaugeValue(drift))
		if drift.Sign() != 0 {
			j.logger.WithFields(logrus.Fields{
				"pool_chain_id": key.ChainID,
				"pool_address":  key.Address,
				"local_debt":    global,
				"indexed_debt":  indexDebt,
			}).Warn("local debt ledger drifted from the indexer")
		}
	}
}

func gaugeValue(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
