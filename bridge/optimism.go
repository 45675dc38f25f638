package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/contract"
	"github.com/relayprotocol/vault-claimer/contract/abi"
	"github.com/relayprotocol/vault-claimer/ethclient"
)

// optimismBridge probes a pre-Bedrock rollup by scanning the L2 output
// oracle for freshly proposed outputs.
type optimismBridge struct {
	chain  *config.ChainConfig
	client ethclient.Client
}

func (b *optimismBridge) Stack() config.BridgeStack { return config.StackOptimism }

func (b *optimismBridge) TwoStep() bool { return true }

func (b *optimismBridge) CheckStatus(ctx context.Context) *Status {
	proof, latest, err := newestLog(ctx, b.client, b.chain.NativeBridge.OutputOracle, []common.Hash{abi.OutputProposedTopic}, b.chain.LookbackBlocks)
	if err != nil {
		return downStatus(err)
	}
	if proof == nil {
		return downStatus(errors.New("No new output proposals found"))
	}
	proofTime, err := proofTimestamp(ctx, b.client, proof.BlockNumber)
	if err != nil {
		return downStatus(err)
	}
	return statusFromProof(b.chain, proof.BlockNumber, proofTime, latest)
}

// bedrockBridge probes a post-Bedrock rollup through its dispute game
// factory: the timestamp of the most recently created game is the freshness
// signal, no event scan is needed.
type bedrockBridge struct {
	chain   *config.ChainConfig
	factory *contract.Contract
}

func newBedrockBridge(chain *config.ChainConfig, client ethclient.Client) *bedrockBridge {
	return &bedrockBridge{
		chain:   chain,
		factory: contract.NewContract(client, chain.NativeBridge.DisputeGameFactory, abi.DisputeGameFactoryABI),
	}
}

func (b *bedrockBridge) Stack() config.BridgeStack { return config.StackOptimismBedrock }

func (b *bedrockBridge) TwoStep() bool { return true }

func (b *bedrockBridge) CheckStatus(ctx context.Context) *Status {
	values, err := b.factory.Call(ctx, "gameCount")
	if err != nil {
		return downStatus(err)
	}
	count, ok := values[0].(*big.Int)
	if !ok {
		return downStatus(fmt.Errorf("unexpected gameCount type %T", values[0]))
	}
	if count.Sign() == 0 {
		return downStatus(errors.New("No dispute games created yet"))
	}
	index := new(big.Int).Sub(count, big.NewInt(1))
	values, err = b.factory.Call(ctx, "gameAtIndex", index)
	if err != nil {
		return downStatus(err)
	}
	createdAt, ok := values[1].(uint64)
	if !ok {
		return downStatus(fmt.Errorf("unexpected game timestamp type %T", values[1]))
	}
	proofTime := time.Unix(int64(createdAt), 0)
	sinceProof := time.Since(proofTime)
	status := &Status{
		LastProofTimestamp: proofTime,
		TimeSinceLastProof: sinceProof,
	}
	if sinceProof > b.chain.MaxProofStaleness {
		status.Error = fmt.Sprintf("latest dispute game is too old: %s > %s", sinceProof.Truncate(time.Second), b.chain.MaxProofStaleness)
		return status
	}
	status.IsUp = true
	return status
}
