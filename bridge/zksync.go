package bridge

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/contract/abi"
	"github.com/relayprotocol/vault-claimer/ethclient"
)

// zkSyncBridge probes a zkSync-era chain by scanning its diamond proxy for
// executed-block events.
type zkSyncBridge struct {
	chain  *config.ChainConfig
	client ethclient.Client
}

func (b *zkSyncBridge) Stack() config.BridgeStack { return config.StackZkSync }

func (b *zkSyncBridge) TwoStep() bool { return false }

func (b *zkSyncBridge) CheckStatus(ctx context.Context) *Status {
	proof, latest, err := newestLog(ctx, b.client, b.chain.NativeBridge.DiamondProxy,
		[]common.Hash{abi.BlockExecutionTopic}, b.chain.LookbackBlocks)
	if err != nil {
		return downStatus(err)
	}
	if proof == nil {
		return downStatus(errors.New("No new executed blocks found"))
	}
	proofTime, err := proofTimestamp(ctx, b.client, proof.BlockNumber)
	if err != nil {
		return downStatus(err)
	}
	return statusFromProof(b.chain, proof.BlockNumber, proofTime, latest)
}
