package claimer

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relayprotocol/vault-claimer/bridge"
	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/logging"
	"github.com/relayprotocol/vault-claimer/utils"
)

// StatusMonitor polls every configured origin chain's native bridge for
// proof freshness and exports the results as gauges. Each pass is
// independent, there is no persisted failure count; alerting on repeated
// down-reports lives in the metrics stack.
type StatusMonitor struct {
	logger   logging.Logger
	interval time.Duration
	chains   map[string]*config.ChainConfig
	bridges  map[uint64]bridge.Bridge
}

func NewStatusMonitor(logger logging.Logger, cfg *config.ClaimerConfig, chains map[string]*config.ChainConfig, bridges map[uint64]bridge.Bridge) *StatusMonitor {
	return &StatusMonitor{
		logger:   logger,
		interval: cfg.StatusInterval,
		chains:   chains,
		bridges:  bridges,
	}
}

func (m *StatusMonitor) Start(ctx context.Context) {
	m.logger.WithField("interval", m.interval).Info("starting bridge status monitor")
	for {
		m.RunOnce(ctx)
		if utils.ContextSleep(ctx, m.interval) == nil {
			return
		}
	}
}

func (m *StatusMonitor) RunOnce(ctx context.Context) {
	for _, chain := range m.chains {
		br, ok := m.bridges[chain.ChainID]
		if !ok {
			continue
		}
		status := br.CheckStatus(ctx)
		chainID := strconv.FormatUint(chain.ChainID, 10)
		stack := string(chain.Stack)

		up := float64(0)
		if status.IsUp {
			up = 1
		}
		BridgeIsUp.WithLabelValues(chainID, chain.Name, stack).Set(up)
		if !status.LastProofTimestamp.IsZero() {
			TimeSinceLastProof.WithLabelValues(chainID, chain.Name, stack).Set(status.TimeSinceLastProof.Seconds())
		}
		if status.LastProofBlock > 0 {
			LastProofBlock.WithLabelValues(chainID, chain.Name, stack).Set(float64(status.LastProofBlock))
		}

		fields := logrus.Fields{
			"chain":    chain.Name,
			"chain_id": chain.ChainID,
			"stack":    stack,
		}
		if status.IsUp {
			m.logger.WithFields(fields).WithField("time_since_last_proof", status.TimeSinceLastProof).Debug("bridge is up")
		} else {
			m.logger.WithFields(fields).WithField("error", status.Error).Warn("bridge is down")
		}
	}
}
