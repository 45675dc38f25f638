package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/entity"
)

type claimsRepo basePostgresRepo

func NewClaimsRepo(table string, db *db.DB) entity.ClaimsRepo {
	return (*claimsRepo)(newBasePostgresRepo(table, db))
}

func (r *claimsRepo) Ensure(ctx context.Context, claim *entity.Claim) error {
	q, args, err := sq.Insert(r.table).
		Columns("pool_chain_id", "pool_address", "chain_id", "bridge", "retired", "balance").
		Values(claim.PoolChainID, claim.PoolAddress, claim.ChainID, claim.Bridge, claim.Retired, claim.Balance).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert claim: %w", err)
	}
	return nil
}

func (r *claimsRepo) FindByOrigin(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address) ([]*entity.Claim, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"pool_chain_id": poolChainID, "pool_address": poolAddress, "chain_id": chainID, "bridge": bridge}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	var claims []*entity.Claim
	err = r.db.SelectContext(ctx, &claims, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find claims: %w", err)
	}
	return claims, nil
}
