package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/entity"
)

type originsRepo basePostgresRepo

func NewOriginsRepo(table string, db *db.DB) entity.OriginsRepo {
	return (*originsRepo)(newBasePostgresRepo(table, db))
}

func (r *originsRepo) Ensure(ctx context.Context, origin *entity.Origin) error {
	q, args, err := sq.Insert(r.table).
		Columns("pool_chain_id", "pool_address", "chain_id", "bridge", "proxy_bridge", "curator",
			"max_debt", "outstanding_debt", "bridge_fee_bps", "cooldown_seconds", "last_claimed_at").
		Values(origin.PoolChainID, origin.PoolAddress, origin.ChainID, origin.Bridge, origin.ProxyBridge, origin.Curator,
			origin.MaxDebt, origin.OutstandingDebt, origin.BridgeFeeBps, origin.CoolDownSeconds, origin.LastClaimedAt).
		Suffix("ON CONFLICT (pool_chain_id, pool_address, chain_id, bridge) DO UPDATE SET updated_at = NOW(), " +
			"proxy_bridge = EXCLUDED.proxy_bridge, curator = EXCLUDED.curator, max_debt = EXCLUDED.max_debt, " +
			"outstanding_debt = EXCLUDED.outstanding_debt, bridge_fee_bps = EXCLUDED.bridge_fee_bps, " +
			"cooldown_seconds = EXCLUDED.cooldown_seconds, last_claimed_at = EXCLUDED.last_claimed_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert origin: %w", err)
	}
	return nil
}

func (r *originsRepo) GetByKey(ctx context.Context, poolChainID uint64, poolAddress common.Address, chainID uint64, bridge common.Address) (*entity.Origin, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"pool_chain_id": poolChainID, "pool_address": poolAddress, "chain_id": chainID, "bridge": bridge}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	origin := new(entity.Origin)
	err = r.db.GetContext(ctx, origin, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get origin: %w", err)
	}
	return origin, nil
}

func (r *originsRepo) FindByPool(ctx context.Context, poolChainID uint64, poolAddress common.Address) ([]*entity.Origin, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"pool_chain_id": poolChainID, "pool_address": poolAddress}).
		OrderBy("chain_id", "bridge").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	var origins []*entity.Origin
	err = r.db.SelectContext(ctx, &origins, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find origins: %w", err)
	}
	return origins, nil
}
