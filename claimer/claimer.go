package claimer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/relayprotocol/vault-claimer/bridge"
	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/entity"
	"github.com/relayprotocol/vault-claimer/logging"
	"github.com/relayprotocol/vault-claimer/pool"
	"github.com/relayprotocol/vault-claimer/relayapi"
	"github.com/relayprotocol/vault-claimer/utils"
	"github.com/relayprotocol/vault-claimer/vaultindex"
)

type PoolKey struct {
	ChainID uint64
	Address common.Address
}

// Claimer drives pending bridge transactions through prove, finalize and
// claim. All pending work is recomputed from the index on every pass, a
// submission that did not stick is simply re-issued next time; the hosted
// execution service is idempotent per (originChainId, originTxHash).
type Claimer struct {
	logger      logging.Logger
	cfg         *config.ClaimerConfig
	index       vaultindex.Client
	relay       relayapi.Client
	pools       map[PoolKey]*pool.Pool
	bridges     map[uint64]bridge.Bridge
	submissions entity.SubmissionsRepo

	now func() time.Time
}

func NewClaimer(logger logging.Logger, cfg *config.ClaimerConfig, index vaultindex.Client, relay relayapi.Client, pools map[PoolKey]*pool.Pool, bridges map[uint64]bridge.Bridge, submissions entity.SubmissionsRepo) *Claimer {
	return &Claimer{
		logger:      logger,
		cfg:         cfg,
		index:       index,
		relay:       relay,
		pools:       pools,
		bridges:     bridges,
		submissions: submissions,
		now:         time.Now,
	}
}

func (c *Claimer) Start(ctx context.Context) {
	c.logger.WithField("interval", c.cfg.Interval).Info("starting claim driver")
	for {
		if err := c.RunOnce(ctx); err != nil {
			c.logger.WithError(err).Error("claim driver pass failed")
		}
		if utils.ContextSleep(ctx, c.cfg.Interval) == nil {
			return
		}
	}
}

// RunOnce processes every pending transaction once. A per-transaction
// failure is logged and the loop continues; only failure to reach the index
// at all aborts the pass.
func (c *Claimer) RunOnce(ctx context.Context) error {
	txs, err := c.index.PendingTransactions(ctx)
	if err != nil {
		return fmt.Errorf("can't fetch pending transactions: %w", err)
	}
	for _, tx := range txs {
		if err := c.processTransaction(ctx, tx); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"origin_chain_id": tx.OriginChainID,
				"origin_bridge":   tx.OriginBridgeAddress,
				"origin_tx_hash":  tx.OriginTxHash,
				"nonce":           tx.Nonce,
				"pool_chain_id":   tx.PoolChainID,
				"pool_address":    tx.PoolAddress,
				"status":          tx.NativeBridgeStatus,
			}).Warn("can't process pending transaction")
		}
	}
	return nil
}

func (c *Claimer) processTransaction(ctx context.Context, tx *vaultindex.BridgeTransaction) error {
	p, ok := c.pools[PoolKey{ChainID: tx.PoolChainID, Address: tx.PoolAddress}]
	if !ok {
		return fmt.Errorf("transaction targets unknown pool (%d, %s)", tx.PoolChainID, tx.PoolAddress)
	}
	br, ok := c.bridges[tx.OriginChainID]
	if !ok {
		return fmt.Errorf("no bridge configured for origin chain %d", tx.OriginChainID)
	}

	switch tx.NativeBridgeStatus {
	case vaultindex.StatusInitiated:
		if br.TwoStep() {
			if c.now().Sub(tx.OriginTime()) < c.cfg.ProveDelay {
				return nil
			}
			return c.submit(ctx, tx, entity.ActionSubmitProof, c.relay.SubmitProof)
		}
		fallthrough
	case vaultindex.StatusProven:
		if c.now().Before(tx.ExpectedFinalizationTime()) {
			return nil
		}
		return c.submit(ctx, tx, entity.ActionFinalizeWithdrawal, c.relay.FinalizeWithdrawal)
	case vaultindex.StatusFinalized:
		origin, err := p.Origin(tx.OriginChainID, tx.OriginBridgeAddress)
		if err != nil {
			return fmt.Errorf("can't get origin state: %w", err)
		}
		if origin.OutstandingDebt.Sign() == 0 {
			return nil
		}
		return c.submit(ctx, tx, entity.ActionTriggerClaim, c.relay.TriggerClaim)
	}
	return fmt.Errorf("unknown native bridge status %q", tx.NativeBridgeStatus)
}

func (c *Claimer) submit(ctx context.Context, tx *vaultindex.BridgeTransaction, action entity.SubmissionAction, call func(ctx context.Context, originChainID uint64, originTxHash common.Hash) error) error {
	err := call(ctx, tx.OriginChainID, tx.OriginTxHash)
	c.recordSubmission(ctx, tx, action, err)
	if err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{
		"action":          action,
		"origin_chain_id": tx.OriginChainID,
		"origin_tx_hash":  tx.OriginTxHash,
		"nonce":           tx.Nonce,
	}).Info("submitted transaction to relay execution api")
	return nil
}

func (c *Claimer) recordSubmission(ctx context.Context, tx *vaultindex.BridgeTransaction, action entity.SubmissionAction, submitErr error) {
	submission := &entity.Submission{
		OriginChainID: tx.OriginChainID,
		OriginTxHash:  tx.OriginTxHash,
		Action:        action,
		Success:       submitErr == nil,
	}
	success := "true"
	if submitErr != nil {
		success = "false"
		msg := submitErr.Error()
		submission.Error = &msg
	}
	Submissions.WithLabelValues(string(action), success).Inc()
	if err := c.submissions.Ensure(ctx, submission); err != nil {
		c.logger.WithError(err).Error("can't record submission")
	}
}
