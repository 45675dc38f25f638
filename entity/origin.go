package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Origin is the registry row for an authorized (chain, bridge) pair,
// including its live outstanding debt.
type Origin struct {
	ID              uint           `db:"id"`
	PoolChainID     uint64         `db:"pool_chain_id"`
	PoolAddress     common.Address `db:"pool_address"`
	ChainID         uint64         `db:"chain_id"`
	Bridge          common.Address `db:"bridge"`
	ProxyBridge     common.Address `db:"proxy_bridge"`
	Curator         common.Address `db:"curator"`
	MaxDebt         BigInt         `db:"max_debt"`
	OutstandingDebt BigInt         `db:"outstanding_debt"`
	BridgeFeeBps    uint64         `db:"bridge_fee_bps"`
	CoolDownSeconds uint64         `db:"cooldown_seconds"`
	LastClaimedAt   *time.Time     `db:"last_claimed_at"`
	CreatedAt       *time.Time     `db:"created_at"`
	UpdatedAt       *time.Time     `db:"updated_at"`
}

type OriginsRepo interface {
	Ensure(ctx context.Context, origin *Origin) error
	GetByKey(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address) (*Origin, error)
	FindByPool(ctx context.Context, poolChainID uint64, poolAddress common.Address) ([]*Origin, error)
}
