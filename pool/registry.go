package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// AddOrigin registers a new origin or updates the configuration of an
// existing one. Outstanding debt of a previously disabled origin survives
// re-registration unchanged.
func (p *Pool) AddOrigin(ctx context.Context, caller common.Address, settings OriginSettings) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.cfg.Curator {
		return ErrUnauthorizedCaller
	}
	if settings.MaxDebt == nil || settings.MaxDebt.Sign() < 0 {
		return fmt.Errorf("invalid max debt for origin (%d, %s)", settings.ChainID, settings.Bridge)
	}
	if settings.Curator == (common.Address{}) {
		settings.Curator = p.cfg.Curator
	}
	settings.MaxDebt = new(big.Int).Set(settings.MaxDebt)

	key := OriginKey{ChainID: settings.ChainID, Bridge: settings.Bridge}
	o, exists := p.origins[key]
	var prevSettings OriginSettings
	if exists {
		prevSettings = o.settings
		o.settings = settings
	} else {
		o = &originState{
			settings:        settings,
			outstandingDebt: new(big.Int),
		}
		p.origins[key] = o
	}
	if err := p.persistOrigin(ctx, o); err != nil {
		if exists {
			o.settings = prevSettings
		} else {
			delete(p.origins, key)
		}
		return fmt.Errorf("can't persist origin: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"origin_chain_id":  settings.ChainID,
		"origin_bridge":    settings.Bridge,
		"proxy_bridge":     settings.ProxyBridge,
		"curator":          settings.Curator,
		"max_debt":         settings.MaxDebt,
		"bridge_fee_bps":   settings.BridgeFeeBps,
		"cooldown":         settings.CoolDown,
		"outstanding_debt": o.outstandingDebt,
	}).Info("origin added")
	p.recordDebtMetrics()
	return nil
}

// DisableOrigin zeroes the origin's debt ceiling. The outstanding debt is
// preserved so it can still be settled by later claims.
func (p *Pool) DisableOrigin(ctx context.Context, caller common.Address, chainID uint64, bridge common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.origins[OriginKey{ChainID: chainID, Bridge: bridge}]
	if !ok {
		return &UnauthorizedOriginError{ChainID: chainID, Bridge: bridge}
	}
	if caller != o.settings.Curator {
		return ErrUnauthorizedCaller
	}
	prevMaxDebt := o.settings.MaxDebt
	o.settings.MaxDebt = new(big.Int)
	if err := p.persistOrigin(ctx, o); err != nil {
		o.settings.MaxDebt = prevMaxDebt
		return fmt.Errorf("can't persist origin: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"origin_chain_id":  chainID,
		"origin_bridge":    bridge,
		"max_debt":         prevMaxDebt,
		"outstanding_debt": o.outstandingDebt,
	}).Warn("origin disabled")
	return nil
}
