package pool

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/relayprotocol/vault-claimer/entity"
)

// Claim settles the origin's outstanding debt from the funds that landed on
// its proxy bridge. The proxy balance B retires min(B, debt); all of B is
// then swept and deposited into the yield pool. When the bridged amount is
// below the debt, the remainder stays on the ledger as stuck debt until the
// next claim or a manual correction.
func (p *Pool) Claim(ctx context.Context, chainID uint64, bridge common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.origins[OriginKey{ChainID: chainID, Bridge: bridge}]
	if !ok {
		return &UnauthorizedOriginError{ChainID: chainID, Bridge: bridge}
	}
	now := p.now()
	if o.lastClaimedAt != nil && now.Sub(*o.lastClaimedAt) < o.settings.CoolDown {
		return ErrClaimCooldown
	}

	balance, err := p.balances.Balance(ctx, o.settings.ProxyBridge)
	if err != nil {
		return fmt.Errorf("can't read proxy bridge balance: %w", err)
	}
	if balance.Sign() == 0 {
		p.logger.WithFields(logrus.Fields{
			"origin_chain_id":  chainID,
			"origin_bridge":    bridge,
			"outstanding_debt": o.outstandingDebt,
		}).Info("claim skipped, proxy bridge balance is zero")
		return nil
	}

	retired := p.settle(o, balance)
	prevClaimedAt := o.lastClaimedAt
	o.lastClaimedAt = &now

	restore := func() {
		o.outstandingDebt.Add(o.outstandingDebt, retired)
		p.outstandingDebt.Add(p.outstandingDebt, retired)
		o.lastClaimedAt = prevClaimedAt
	}

	if err = p.funds.PullFromProxy(ctx, o.settings.ProxyBridge, balance); err != nil {
		restore()
		return fmt.Errorf("can't pull funds from proxy bridge: %w", err)
	}
	if err = p.yieldPool.Deposit(ctx, balance); err != nil {
		restore()
		return fmt.Errorf("can't deposit into yield pool: %w", err)
	}

	// Funds have moved at this point. A failed write no longer rolls the
	// counters back, it only surfaces the error.
	if err = p.persistOrigin(ctx, o); err != nil {
		return fmt.Errorf("can't persist origin: %w", err)
	}
	if err = p.store.Claims.Ensure(ctx, &entity.Claim{
		PoolChainID: p.cfg.ChainID,
		PoolAddress: p.cfg.Address,
		ChainID:     chainID,
		Bridge:      bridge,
		Retired:     entity.NewBigInt(retired),
		Balance:     entity.NewBigInt(balance),
	}); err != nil {
		return fmt.Errorf("can't record claim: %w", err)
	}

	stuck := new(big.Int).Set(o.outstandingDebt)
	p.logger.WithFields(logrus.Fields{
		"origin_chain_id":  chainID,
		"origin_bridge":    bridge,
		"balance":          balance,
		"retired":          retired,
		"outstanding_debt": stuck,
	}).Info("claim settled")
	if retired.Cmp(balance) < 0 {
		p.logger.WithFields(logrus.Fields{
			"origin_chain_id": chainID,
			"origin_bridge":   bridge,
			"surplus":         new(big.Int).Sub(balance, retired),
		}).Info("claim surplus deposited as yield")
	}
	if stuck.Sign() > 0 {
		p.logger.WithFields(logrus.Fields{
			"origin_chain_id": chainID,
			"origin_bridge":   bridge,
			"stuck_debt":      stuck,
		}).Warn("claim left unsettled debt on the ledger")
	}
	ClaimsSettled.
		WithLabelValues(strconv.FormatUint(p.cfg.ChainID, 10), p.cfg.Address.String(),
			strconv.FormatUint(chainID, 10), bridge.String()).
		Inc()
	p.recordDebtMetrics()
	return nil
}
