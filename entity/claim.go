package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Claim records a settlement: how much of the proxy-bridge balance retired
// debt and how much arrived in total.
type Claim struct {
	ID          uint           `db:"id"`
	PoolChainID uint64         `db:"pool_chain_id"`
	PoolAddress common.Address `db:"pool_address"`
	ChainID     uint64         `db:"chain_id"`
	Bridge      common.Address `db:"bridge"`
	Retired     BigInt         `db:"retired"`
	Balance     BigInt         `db:"balance"`
	CreatedAt   *time.Time     `db:"created_at"`
}

type ClaimsRepo interface {
	Ensure(ctx context.Context, claim *Claim) error
	FindByOrigin(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address) ([]*Claim, error)
}
