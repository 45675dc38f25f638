package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/ethclient"
)

// ErrChainStatusDown is the error form of a down status, used by one-shot
// callers that need an exit code rather than a gauge.
var ErrChainStatusDown = errors.New("native bridge is down")

// Status is the result of a single bridge liveness probe. A probe never
// returns an error to the caller: any failure to observe a fresh proof is
// reported as a down status with the error message attached.
type Status struct {
	IsUp               bool
	LastProofBlock     uint64
	LastProofTimestamp time.Time
	TimeSinceLastProof time.Duration
	Error              string
}

func (s *Status) Err() error {
	if s.IsUp {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrChainStatusDown, s.Error)
}

// Bridge is one native-bridge stack probed by the status monitor and
// consulted by the claim driver for its withdrawal shape.
type Bridge interface {
	Stack() config.BridgeStack
	// TwoStep reports whether withdrawals need a separate prove step before
	// finalization.
	TwoStep() bool
	CheckStatus(ctx context.Context) *Status
}

// ForStack builds the status checker for the chain's configured bridge
// stack. The client must be connected to the chain carrying the bridge
// contracts, the L1 for rollup stacks.
func ForStack(chain *config.ChainConfig, client ethclient.Client) (Bridge, error) {
	switch chain.Stack {
	case config.StackOptimism:
		return &optimismBridge{chain: chain, client: client}, nil
	case config.StackOptimismBedrock:
		return newBedrockBridge(chain, client), nil
	case config.StackArbitrum:
		return &arbitrumBridge{chain: chain, client: client}, nil
	case config.StackZkSync:
		return &zkSyncBridge{chain: chain, client: client}, nil
	case config.StackCCTP:
		return &attestedBridge{stack: config.StackCCTP}, nil
	case config.StackEverclear:
		return &attestedBridge{stack: config.StackEverclear}, nil
	}
	return nil, fmt.Errorf("unsupported bridge stack %q", chain.Stack)
}

func downStatus(err error) *Status {
	return &Status{IsUp: false, Error: err.Error()}
}

// newestLog scans the look-back window for the newest log emitted by the
// given contract with one of the given topics. A nil log with a nil error
// means the window contained no matching events.
func newestLog(ctx context.Context, client ethclient.Client, contract common.Address, topics []common.Hash, lookback uint64) (*types.Log, uint64, error) {
	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("can't get latest block number: %w", err)
	}
	from := uint64(0)
	if latest > lookback {
		from = latest - lookback
	}
	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{topics},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("can't filter logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, latest, nil
	}
	newest := &logs[0]
	for i := range logs {
		if logs[i].BlockNumber > newest.BlockNumber ||
			(logs[i].BlockNumber == newest.BlockNumber && logs[i].Index > newest.Index) {
			newest = &logs[i]
		}
	}
	return newest, latest, nil
}

// statusFromProof evaluates a found proof against the chain's staleness
// bounds. maxBlockLag of zero disables the block-distance bound.
func statusFromProof(chain *config.ChainConfig, proofBlock uint64, proofTime time.Time, latestBlock uint64) *Status {
	sinceProof := time.Since(proofTime)
	status := &Status{
		LastProofBlock:     proofBlock,
		LastProofTimestamp: proofTime,
		TimeSinceLastProof: sinceProof,
	}
	if sinceProof > chain.MaxProofStaleness {
		status.Error = fmt.Sprintf("last proof is too old: %s > %s", sinceProof.Truncate(time.Second), chain.MaxProofStaleness)
		return status
	}
	if chain.MaxProofBlockLag > 0 && latestBlock-proofBlock > chain.MaxProofBlockLag {
		status.Error = fmt.Sprintf("last proof is too many blocks behind: %d > %d", latestBlock-proofBlock, chain.MaxProofBlockLag)
		return status
	}
	status.IsUp = true
	return status
}

func proofTimestamp(ctx context.Context, client ethclient.Client, blockNumber uint64) (time.Time, error) {
	header, err := client.HeaderByNumber(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("can't get proof block header: %w", err)
	}
	return time.Unix(int64(header.Time), 0), nil
}
