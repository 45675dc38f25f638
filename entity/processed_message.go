package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProcessedMessage is the dedup set shared by the normal message handler and
// the failed-message recovery path. A (pool, chain, bridge, nonce) key can
// appear here exactly once, whichever path consumed it.
type ProcessedMessage struct {
	ID            uint           `db:"id"`
	PoolChainID   uint64         `db:"pool_chain_id"`
	PoolAddress   common.Address `db:"pool_address"`
	ChainID       uint64         `db:"chain_id"`
	Bridge        common.Address `db:"bridge"`
	Nonce         BigInt         `db:"nonce"`
	Recipient     common.Address `db:"recipient"`
	Amount        BigInt         `db:"amount"`
	FailedHandler bool           `db:"failed_handler"`
	CreatedAt     *time.Time     `db:"created_at"`
}

type ProcessedMessagesRepo interface {
	Insert(ctx context.Context, msg *ProcessedMessage) error
	GetByNonce(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address, nonce BigInt) (*ProcessedMessage, error)
	Delete(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address, nonce BigInt) error
}
