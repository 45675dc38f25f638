package relayapi

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"

	"github.com/relayprotocol/vault-claimer/config"
)

// ErrProofUnavailable marks a submission the execution service cannot serve
// yet because the underlying proof has not been produced. The next driver
// pass retries it.
var ErrProofUnavailable = errors.New("proof is not available yet")

// Action names a hosted-execution endpoint. The service is idempotent per
// (originChainId, originTxHash), re-submitting an already executed action is
// safe and returns success.
type Action string

const (
	ActionSubmitProof        Action = "submit-proof"
	ActionFinalizeWithdrawal Action = "finalize-withdrawal"
	ActionTriggerClaim       Action = "trigger-claim"
)

// SubmissionFailedError is a non-fatal per-transaction failure: the driver
// logs it and moves on, the next pass retries naturally.
type SubmissionFailedError struct {
	Action        Action
	OriginChainID uint64
	OriginTxHash  common.Hash
	Status        string
	Message       string
	Err           error
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("%s for (%d, %s) failed with %s: %s", e.Action, e.OriginChainID, e.OriginTxHash, e.Status, e.Message)
}

func (e *SubmissionFailedError) Unwrap() error {
	return e.Err
}

// VaultAction is a fund movement executed by the hosted service on behalf
// of a vault: sweeping a proxy bridge, paying out a loan recipient or
// depositing settled funds into the yield pool.
type VaultAction string

const (
	VaultActionPullFromProxy VaultAction = "pull-from-proxy"
	VaultActionPayout        VaultAction = "payout"
	VaultActionDepositYield  VaultAction = "deposit-yield"
)

// Client submits bridge transactions and vault fund movements to the hosted
// relay execution service.
type Client interface {
	SubmitProof(ctx context.Context, originChainID uint64, originTxHash common.Hash) error
	FinalizeWithdrawal(ctx context.Context, originChainID uint64, originTxHash common.Hash) error
	TriggerClaim(ctx context.Context, originChainID uint64, originTxHash common.Hash) error
	ExecuteVaultAction(ctx context.Context, poolChainID uint64, poolAddress common.Address, action VaultAction, target common.Address, amount *big.Int) error
}

type client struct {
	http *resty.Client
}

func NewClient(cfg *config.RelayAPIConfig) Client {
	return &client{
		http: resty.New().
			SetBaseURL(cfg.Host).
			SetTimeout(cfg.Timeout).
			SetAuthToken(cfg.Token),
	}
}

type submissionRequest struct {
	OriginChainID uint64      `json:"originChainId"`
	OriginTxHash  common.Hash `json:"originTxHash"`
}

type submissionResponse struct {
	Message string `json:"message"`
}

func (c *client) SubmitProof(ctx context.Context, originChainID uint64, originTxHash common.Hash) error {
	return c.submit(ctx, ActionSubmitProof, originChainID, originTxHash)
}

func (c *client) FinalizeWithdrawal(ctx context.Context, originChainID uint64, originTxHash common.Hash) error {
	return c.submit(ctx, ActionFinalizeWithdrawal, originChainID, originTxHash)
}

func (c *client) TriggerClaim(ctx context.Context, originChainID uint64, originTxHash common.Hash) error {
	return c.submit(ctx, ActionTriggerClaim, originChainID, originTxHash)
}

func (c *client) submit(ctx context.Context, action Action, originChainID uint64, originTxHash common.Hash) error {
	res := new(submissionResponse)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&submissionRequest{OriginChainID: originChainID, OriginTxHash: originTxHash}).
		SetResult(res).
		SetError(res).
		Post(fmt.Sprintf("/v1/executions/%s", action))
	if err != nil {
		return fmt.Errorf("can't reach relay execution api: %w", err)
	}
	if resp.IsError() {
		submissionErr := &SubmissionFailedError{
			Action:        action,
			OriginChainID: originChainID,
			OriginTxHash:  originTxHash,
			Status:        resp.Status(),
			Message:       res.Message,
		}
		if resp.StatusCode() == http.StatusNotFound {
			submissionErr.Err = ErrProofUnavailable
		}
		return submissionErr
	}
	return nil
}

type vaultExecutionRequest struct {
	Action VaultAction    `json:"action"`
	Target common.Address `json:"target"`
	Amount *big.Int       `json:"amount"`
}

func (c *client) ExecuteVaultAction(ctx context.Context, poolChainID uint64, poolAddress common.Address, action VaultAction, target common.Address, amount *big.Int) error {
	res := new(submissionResponse)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&vaultExecutionRequest{Action: action, Target: target, Amount: amount}).
		SetResult(res).
		SetError(res).
		Post(fmt.Sprintf("/v1/vaults/%d/%s/executions", poolChainID, poolAddress))
	if err != nil {
		return fmt.Errorf("can't reach relay execution api: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s for vault (%d, %s) failed with %s: %s", action, poolChainID, poolAddress, resp.Status(), res.Message)
	}
	return nil
}
