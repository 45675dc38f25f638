package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// The ledger primitives keep the central invariant of the pool: the global
// outstanding debt equals the sum of per-origin debts over all known
// origins, enabled or disabled. All three mutate both counters together
// while the pool mutex is held.

func (p *Pool) advance(o *originState, amount *big.Int) error {
	newDebt := new(big.Int).Add(o.outstandingDebt, amount)
	if newDebt.Cmp(o.settings.MaxDebt) > 0 {
		return &DebtCeilingExceededError{
			ChainID:         o.settings.ChainID,
			Bridge:          o.settings.Bridge,
			OutstandingDebt: new(big.Int).Set(o.outstandingDebt),
			Requested:       new(big.Int).Set(amount),
			MaxDebt:         new(big.Int).Set(o.settings.MaxDebt),
		}
	}
	o.outstandingDebt.Set(newDebt)
	p.outstandingDebt.Add(p.outstandingDebt, amount)
	return nil
}

// settle retires min(available, outstandingDebt) and returns the retired
// amount. The clamp makes underflow impossible.
func (p *Pool) settle(o *originState, available *big.Int) *big.Int {
	retired := new(big.Int).Set(available)
	if retired.Cmp(o.outstandingDebt) > 0 {
		retired.Set(o.outstandingDebt)
	}
	o.outstandingDebt.Sub(o.outstandingDebt, retired)
	p.outstandingDebt.Sub(p.outstandingDebt, retired)
	return retired
}

// correct applies a clamped manual debt decrease, undoing the effect of an
// advance that is being replayed outside the normal path.
func (p *Pool) correct(o *originState, amount *big.Int) *big.Int {
	return p.settle(o, amount)
}

// Correct is the privileged manual reconciliation entry point used together
// with failed-message recovery. A decrease is clamped to the origin's
// outstanding debt; an increase is subject to the regular debt ceiling.
func (p *Pool) Correct(ctx context.Context, caller common.Address, chainID uint64, bridge common.Address, amount *big.Int, decrease bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.origins[OriginKey{ChainID: chainID, Bridge: bridge}]
	if !ok {
		return &UnauthorizedOriginError{ChainID: chainID, Bridge: bridge}
	}
	if caller != o.settings.Curator {
		return ErrUnauthorizedCaller
	}

	var applied *big.Int
	if decrease {
		applied = p.correct(o, amount)
	} else {
		if err := p.advance(o, amount); err != nil {
			return err
		}
		applied = new(big.Int).Set(amount)
	}
	if err := p.persistOrigin(ctx, o); err != nil {
		// restore counters, a failed write must not leave a half-applied correction
		if decrease {
			o.outstandingDebt.Add(o.outstandingDebt, applied)
			p.outstandingDebt.Add(p.outstandingDebt, applied)
		} else {
			o.outstandingDebt.Sub(o.outstandingDebt, applied)
			p.outstandingDebt.Sub(p.outstandingDebt, applied)
		}
		return fmt.Errorf("can't persist origin: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"origin_chain_id":  chainID,
		"origin_bridge":    bridge,
		"amount":           applied,
		"decrease":         decrease,
		"outstanding_debt": o.outstandingDebt,
	}).Warn("manual debt correction applied")
	p.recordDebtMetrics()
	return nil
}
