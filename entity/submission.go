package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type SubmissionAction string

const (
	ActionSubmitProof        SubmissionAction = "submit_proof"
	ActionFinalizeWithdrawal SubmissionAction = "finalize_withdrawal"
	ActionTriggerClaim       SubmissionAction = "trigger_claim"
)

// Submission is an audit record of a single relay-api call made by the
// claimer loop; pending work itself is recomputed from the index each pass.
type Submission struct {
	ID            uint             `db:"id"`
	OriginChainID uint64           `db:"origin_chain_id"`
	OriginTxHash  common.Hash      `db:"origin_tx_hash"`
	Action        SubmissionAction `db:"action"`
	Success       bool             `db:"success"`
	Error         *string          `db:"error"`
	CreatedAt     *time.Time       `db:"created_at"`
}

type SubmissionsRepo interface {
	Ensure(ctx context.Context, submission *Submission) error
	FindByTxHash(ctx context.Context, originChainID uint64, originTxHash common.Hash) ([]*Submission, error)
}
