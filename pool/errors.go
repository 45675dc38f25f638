package pool

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnauthorizedCaller = errors.New("caller is not the curator")
	ErrNotAWethPool       = errors.New("native asset sent to a non-WETH pool")
	ErrSharePriceTooLow   = errors.New("share price below the allowed minimum")
	ErrSharePriceTooHigh  = errors.New("share price above the allowed maximum")
	ErrClaimCooldown      = errors.New("origin claim cooldown has not elapsed")
)

// UnauthorizedOriginError is returned when an operation targets a
// (chain, bridge) pair that is not registered for this pool.
type UnauthorizedOriginError struct {
	ChainID uint64
	Bridge  common.Address
}

func (e *UnauthorizedOriginError) Error() string {
	return fmt.Sprintf("origin (%d, %s) is not authorized for this pool", e.ChainID, e.Bridge)
}

// DebtCeilingExceededError is returned when an advance would push an
// origin's outstanding debt above its ceiling.
type DebtCeilingExceededError struct {
	ChainID         uint64
	Bridge          common.Address
	OutstandingDebt *big.Int
	Requested       *big.Int
	MaxDebt         *big.Int
}

func (e *DebtCeilingExceededError) Error() string {
	return fmt.Sprintf("advance of %s would push origin (%d, %s) debt %s above ceiling %s",
		e.Requested, e.ChainID, e.Bridge, e.OutstandingDebt, e.MaxDebt)
}

// MessageAlreadyProcessedError is the replay guard: the nonce was consumed
// before, by either the normal handler or the failed-message recovery path.
type MessageAlreadyProcessedError struct {
	ChainID uint64
	Bridge  common.Address
	Nonce   *big.Int
}

func (e *MessageAlreadyProcessedError) Error() string {
	return fmt.Sprintf("message (%d, %s, %s) was already processed", e.ChainID, e.Bridge, e.Nonce)
}
