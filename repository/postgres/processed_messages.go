package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/entity"
)

type processedMessagesRepo basePostgresRepo

func NewProcessedMessagesRepo(table string, db *db.DB) entity.ProcessedMessagesRepo {
	return (*processedMessagesRepo)(newBasePostgresRepo(table, db))
}

func (r *processedMessagesRepo) Insert(ctx context.Context, msg *entity.ProcessedMessage) error {
	q, args, err := sq.Insert(r.table).
		Columns("pool_chain_id", "pool_address", "chain_id", "bridge", "nonce", "recipient", "amount", "failed_handler").
		Values(msg.PoolChainID, msg.PoolAddress, msg.ChainID, msg.Bridge, msg.Nonce, msg.Recipient, msg.Amount, msg.FailedHandler).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert processed message: %w", err)
	}
	return nil
}

func (r *processedMessagesRepo) GetByNonce(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address, nonce entity.BigInt) (*entity.ProcessedMessage, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"pool_chain_id": poolChainID, "pool_address": poolAddress, "chain_id": chainID, "bridge": bridge, "nonce": nonce}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	msg := new(entity.ProcessedMessage)
	err = r.db.GetContext(ctx, msg, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get processed message: %w", err)
	}
	return msg, nil
}

func (r *processedMessagesRepo) Delete(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address, nonce entity.BigInt) error {
	q, args, err := sq.Delete(r.table).
		Where(sq.Eq{"pool_chain_id": poolChainID, "pool_address": poolAddress, "chain_id": chainID, "bridge": bridge, "nonce": nonce}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't delete processed message: %w", err)
	}
	return nil
}
