package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/entity"
)

// Handle consumes a loan message delivered by the relay transport from a
// registered origin. The message nonce is burned in the shared dedup set, the
// origin debt is advanced by the full amount and the recipient is paid the
// amount net of the origin bridge fee.
func (p *Pool) Handle(ctx context.Context, chainID uint64, bridge common.Address, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.origins[OriginKey{ChainID: chainID, Bridge: bridge}]
	if !ok {
		return &UnauthorizedOriginError{ChainID: chainID, Bridge: bridge}
	}
	return p.process(ctx, o, payload, false)
}

// ProcessFailedHandler replays a message whose original delivery failed.
// Only the pool curator may trigger it, regardless of any per-origin
// curator. It shares the dedup set with Handle, so a message consumed by
// either path can never be applied twice.
func (p *Pool) ProcessFailedHandler(ctx context.Context, caller common.Address, chainID uint64, bridge common.Address, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.cfg.Curator {
		return ErrUnauthorizedCaller
	}
	o, ok := p.origins[OriginKey{ChainID: chainID, Bridge: bridge}]
	if !ok {
		return &UnauthorizedOriginError{ChainID: chainID, Bridge: bridge}
	}
	return p.process(ctx, o, payload, true)
}

func (p *Pool) process(ctx context.Context, o *originState, payload []byte, failedHandler bool) error {
	msg, err := DecodeLoanMessage(payload)
	if err != nil {
		return err
	}

	_, err = p.store.ProcessedMessages.GetByNonce(ctx, p.cfg.ChainID, p.cfg.Address, o.settings.ChainID, o.settings.Bridge, entity.NewBigInt(msg.Nonce))
	if err == nil {
		return &MessageAlreadyProcessedError{ChainID: o.settings.ChainID, Bridge: o.settings.Bridge, Nonce: msg.Nonce}
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("can't check processed messages: %w", err)
	}

	fee := new(big.Int).Mul(msg.Amount, new(big.Int).SetUint64(o.settings.BridgeFeeBps))
	fee.Div(fee, big.NewInt(FractionalBpsDenominator))
	payout := new(big.Int).Sub(msg.Amount, fee)

	if err = p.advance(o, msg.Amount); err != nil {
		return err
	}
	if err = p.store.ProcessedMessages.Insert(ctx, &entity.ProcessedMessage{
		PoolChainID:   p.cfg.ChainID,
		PoolAddress:   p.cfg.Address,
		ChainID:       o.settings.ChainID,
		Bridge:        o.settings.Bridge,
		Nonce:         entity.NewBigInt(msg.Nonce),
		Recipient:     msg.Recipient,
		Amount:        entity.NewBigInt(msg.Amount),
		FailedHandler: failedHandler,
	}); err != nil {
		p.correct(o, msg.Amount)
		return fmt.Errorf("can't record processed message: %w", err)
	}
	if err = p.persistOrigin(ctx, o); err != nil {
		p.correct(o, msg.Amount)
		if delErr := p.store.ProcessedMessages.Delete(ctx, p.cfg.ChainID, p.cfg.Address, o.settings.ChainID, o.settings.Bridge, entity.NewBigInt(msg.Nonce)); delErr != nil {
			p.logger.WithError(delErr).Error("can't roll back processed message record")
		}
		return fmt.Errorf("can't persist origin: %w", err)
	}
	if err = p.funds.Payout(ctx, msg.Recipient, payout); err != nil {
		p.correct(o, msg.Amount)
		if delErr := p.store.ProcessedMessages.Delete(ctx, p.cfg.ChainID, p.cfg.Address, o.settings.ChainID, o.settings.Bridge, entity.NewBigInt(msg.Nonce)); delErr != nil {
			p.logger.WithError(delErr).Error("can't roll back processed message record")
		}
		if persistErr := p.persistOrigin(ctx, o); persistErr != nil {
			p.logger.WithError(persistErr).Error("can't roll back persisted origin debt")
		}
		return fmt.Errorf("can't pay out loan: %w", err)
	}
	p.accruedFees.Add(p.accruedFees, fee)

	path := "handler"
	if failedHandler {
		path = "failed_handler"
	}
	p.logger.WithFields(logrus.Fields{
		"origin_chain_id":  o.settings.ChainID,
		"origin_bridge":    o.settings.Bridge,
		"nonce":            msg.Nonce,
		"recipient":        msg.Recipient,
		"amount":           msg.Amount,
		"fee":              fee,
		"path":             path,
		"outstanding_debt": o.outstandingDebt,
	}).Info("loan message processed")
	MessagesProcessed.
		WithLabelValues(strconv.FormatUint(p.cfg.ChainID, 10), p.cfg.Address.String(), path).
		Inc()
	p.recordDebtMetrics()
	return nil
}

// ReceiveNative accepts a plain native-asset transfer. Only pools whose asset
// is the wrapped native token may receive one.
func (p *Pool) ReceiveNative(amount *big.Int) error {
	if !p.cfg.WrappedNative {
		return ErrNotAWethPool
	}
	p.logger.WithField("amount", amount).Debug("native transfer received")
	return nil
}

// UpdateYieldPool migrates the pool to a new yield vault. The new vault's
// share price must fall within the curator-supplied bounds, which guards
// against fat-fingered or manipulated vaults.
func (p *Pool) UpdateYieldPool(ctx context.Context, caller common.Address, newPool YieldPool, minSharePrice, maxSharePrice *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.cfg.Curator {
		return ErrUnauthorizedCaller
	}
	price, err := newPool.SharePrice(ctx)
	if err != nil {
		return fmt.Errorf("can't read share price: %w", err)
	}
	if price.Cmp(minSharePrice) < 0 {
		return ErrSharePriceTooLow
	}
	if price.Cmp(maxSharePrice) > 0 {
		return ErrSharePriceTooHigh
	}
	p.logger.WithFields(logrus.Fields{
		"old_yield_pool": p.yieldPool.Address(),
		"new_yield_pool": newPool.Address(),
		"share_price":    price,
	}).Info("yield pool updated")
	p.yieldPool = newPool
	return nil
}
