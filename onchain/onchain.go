// Package onchain adapts the pool's external collaborators to real chain
// access: balance reads go through the instrumented RPC client, fund
// movements through the hosted relay execution service.
package onchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/contract"
	"github.com/relayprotocol/vault-claimer/contract/abi"
	"github.com/relayprotocol/vault-claimer/ethclient"
	"github.com/relayprotocol/vault-claimer/pool"
	"github.com/relayprotocol/vault-claimer/relayapi"
)

// AssetBalances reads the pool-asset balance of an account, either the
// native balance (wrapped-native pools) or the ERC-20 balance of the asset.
type AssetBalances struct {
	client ethclient.Client
	asset  *contract.Contract
	native bool
}

func NewAssetBalances(client ethclient.Client, asset common.Address, native bool) *AssetBalances {
	return &AssetBalances{
		client: client,
		asset:  contract.NewContract(client, asset, abi.ERC20ABI),
		native: native,
	}
}

func (b *AssetBalances) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	if b.native {
		return b.client.BalanceAt(ctx, account)
	}
	values, err := b.asset.Call(ctx, "balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("can't get token balance: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}
	return balance, nil
}

// VaultExecutor moves funds on behalf of one vault through the hosted relay
// execution service.
type VaultExecutor struct {
	relay       relayapi.Client
	poolChainID uint64
	poolAddress common.Address
}

func NewVaultExecutor(relay relayapi.Client, poolChainID uint64, poolAddress common.Address) *VaultExecutor {
	return &VaultExecutor{
		relay:       relay,
		poolChainID: poolChainID,
		poolAddress: poolAddress,
	}
}

func (e *VaultExecutor) PullFromProxy(ctx context.Context, proxy common.Address, amount *big.Int) error {
	return e.relay.ExecuteVaultAction(ctx, e.poolChainID, e.poolAddress, relayapi.VaultActionPullFromProxy, proxy, amount)
}

func (e *VaultExecutor) Payout(ctx context.Context, recipient common.Address, amount *big.Int) error {
	return e.relay.ExecuteVaultAction(ctx, e.poolChainID, e.poolAddress, relayapi.VaultActionPayout, recipient, amount)
}

// YieldVault is an ERC-4626 vault: deposits are executed by the relay
// service, share price is read directly via eth_call.
type YieldVault struct {
	executor *VaultExecutor
	vault    *contract.Contract
}

func NewYieldVault(client ethclient.Client, executor *VaultExecutor, vault common.Address) *YieldVault {
	return &YieldVault{
		executor: executor,
		vault:    contract.NewContract(client, vault, abi.ERC4626ABI),
	}
}

func (v *YieldVault) Address() common.Address {
	return v.vault.Address()
}

func (v *YieldVault) Deposit(ctx context.Context, amount *big.Int) error {
	return v.executor.relay.ExecuteVaultAction(ctx, v.executor.poolChainID, v.executor.poolAddress, relayapi.VaultActionDepositYield, v.vault.Address(), amount)
}

// SharePrice returns the asset value of one whole share (1e18 units).
func (v *YieldVault) SharePrice(ctx context.Context) (*big.Int, error) {
	values, err := v.vault.Call(ctx, "convertToAssets", big.NewInt(1e18))
	if err != nil {
		return nil, fmt.Errorf("can't get share price: %w", err)
	}
	price, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected convertToAssets result type %T", values[0])
	}
	return price, nil
}

var (
	_ pool.BalanceSource = (*AssetBalances)(nil)
	_ pool.FundsMover    = (*VaultExecutor)(nil)
	_ pool.YieldPool     = (*YieldVault)(nil)
)
