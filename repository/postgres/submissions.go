package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/entity"
)

type submissionsRepo basePostgresRepo

func NewSubmissionsRepo(table string, db *db.DB) entity.SubmissionsRepo {
	return (*submissionsRepo)(newBasePostgresRepo(table, db))
}

func (r *submissionsRepo) Ensure(ctx context.Context, submission *entity.Submission) error {
	q, args, err := sq.Insert(r.table).
		Columns("origin_chain_id", "origin_tx_hash", "action", "success", "error").
		Values(submission.OriginChainID, submission.OriginTxHash, submission.Action, submission.Success, submission.Error).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert submission: %w", err)
	}
	return nil
}

func (r *submissionsRepo) FindByTxHash(ctx context.Context, originChainID uint64, originTxHash common.Hash) ([]*entity.Submission, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"origin_chain_id": originChainID, "origin_tx_hash": originTxHash}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	var submissions []*entity.Submission
	err = r.db.SelectContext(ctx, &submissions, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find submissions: %w", err)
	}
	return submissions, nil
}
