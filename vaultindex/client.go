package vaultindex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"

	"github.com/relayprotocol/vault-claimer/config"
)

// NativeBridgeStatus is maintained by the indexer from observed chain
// events. The claim driver only reads it, submissions never write it back.
type NativeBridgeStatus string

const (
	StatusInitiated NativeBridgeStatus = "INITIATED"
	StatusProven    NativeBridgeStatus = "PROVEN"
	StatusFinalized NativeBridgeStatus = "FINALIZED"
)

// BridgeTransaction is one indexed loan advance making its way through the
// native bridge, keyed by (originChainId, originBridgeAddress, nonce).
type BridgeTransaction struct {
	OriginChainID                 uint64             `json:"originChainId"`
	OriginBridgeAddress           common.Address     `json:"originBridgeAddress"`
	Nonce                         *big.Int           `json:"nonce"`
	Asset                         common.Address     `json:"asset"`
	Amount                        *big.Int           `json:"amount"`
	OriginTxHash                  common.Hash        `json:"originTxHash"`
	OriginTimestamp               int64              `json:"originTimestamp"`
	PoolChainID                   uint64             `json:"destinationPoolChainId"`
	PoolAddress                   common.Address     `json:"destinationPoolAddress"`
	NativeBridgeStatus            NativeBridgeStatus `json:"nativeBridgeStatus"`
	ExpectedFinalizationTimestamp int64              `json:"expectedFinalizationTimestamp"`
	ProofTxHash                   *common.Hash       `json:"proofTxHash"`
	FinalizationTxHash            *common.Hash       `json:"finalizationTxHash"`
}

func (tx *BridgeTransaction) OriginTime() time.Time {
	return time.Unix(tx.OriginTimestamp, 0)
}

func (tx *BridgeTransaction) ExpectedFinalizationTime() time.Time {
	return time.Unix(tx.ExpectedFinalizationTimestamp, 0)
}

// Client is the read-only query surface of the external indexer.
type Client interface {
	PendingTransactions(ctx context.Context) ([]*BridgeTransaction, error)
	PoolOutstandingDebt(ctx context.Context, poolChainID uint64, poolAddress common.Address) (*big.Int, error)
}

type client struct {
	http *resty.Client
}

func NewClient(cfg *config.IndexAPIConfig) Client {
	return &client{
		http: resty.New().
			SetBaseURL(cfg.Host).
			SetTimeout(cfg.Timeout),
	}
}

type pendingTransactionsResponse struct {
	Transactions []*BridgeTransaction `json:"transactions"`
}

// PendingTransactions fetches every indexed transaction that has not been
// claimed yet, oldest first. The driver re-derives all pending work from
// this list each pass.
func (c *client) PendingTransactions(ctx context.Context) ([]*BridgeTransaction, error) {
	res := new(pendingTransactionsResponse)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("claimed", "false").
		SetQueryParam("sort", "originTimestamp").
		SetResult(res).
		Get("/v1/bridge-transactions")
	if err != nil {
		return nil, fmt.Errorf("can't fetch pending transactions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("can't fetch pending transactions: %s returned %s", resp.Request.URL, resp.Status())
	}
	return res.Transactions, nil
}

type poolDebtResponse struct {
	OutstandingDebt *big.Int `json:"outstandingDebt"`
}

// PoolOutstandingDebt returns the indexer's view of a pool's global debt,
// used by the audit job to cross-check the local ledger.
func (c *client) PoolOutstandingDebt(ctx context.Context, poolChainID uint64, poolAddress common.Address) (*big.Int, error) {
	res := new(poolDebtResponse)
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(res).
		Get(fmt.Sprintf("/v1/pools/%d/%s/debt", poolChainID, poolAddress))
	if err != nil {
		return nil, fmt.Errorf("can't fetch pool debt: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("can't fetch pool debt: %s returned %s", resp.Request.URL, resp.Status())
	}
	if res.OutstandingDebt == nil {
		return nil, fmt.Errorf("pool debt response has no outstandingDebt")
	}
	return res.OutstandingDebt, nil
}
