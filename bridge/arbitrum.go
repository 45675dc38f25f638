package bridge

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/contract/abi"
	"github.com/relayprotocol/vault-claimer/ethclient"
)

// arbitrumBridge probes an Arbitrum/Orbit rollup by scanning its rollup
// contract for node confirmations, falling back to node creations, which
// also prove the sequencer/validator pipeline is alive. Both the wall-clock
// and block-distance staleness bounds apply.
type arbitrumBridge struct {
	chain  *config.ChainConfig
	client ethclient.Client
}

func (b *arbitrumBridge) Stack() config.BridgeStack { return config.StackArbitrum }

func (b *arbitrumBridge) TwoStep() bool { return false }

func (b *arbitrumBridge) CheckStatus(ctx context.Context) *Status {
	proof, latest, err := newestLog(ctx, b.client, b.chain.NativeBridge.Rollup,
		[]common.Hash{abi.NodeConfirmedTopic, abi.NodeCreatedTopic}, b.chain.LookbackBlocks)
	if err != nil {
		return downStatus(err)
	}
	if proof == nil {
		return downStatus(errors.New("No new rollup nodes found"))
	}
	proofTime, err := proofTimestamp(ctx, b.client, proof.BlockNumber)
	if err != nil {
		return downStatus(err)
	}
	return statusFromProof(b.chain, proof.BlockNumber, proofTime, latest)
}
