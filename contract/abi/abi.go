package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event signatures scanned by the bridge status checks. Topic hashes are
// derived from the canonical signatures, never hardcoded.
const (
	OutputProposed = "OutputProposed(bytes32,uint256,uint256,uint256)"
	NodeConfirmed  = "NodeConfirmed(uint64,bytes32,bytes32)"
	NodeCreated    = "NodeCreated(uint64,bytes32,bytes32,bytes32,(((bytes32[2],uint64[2]),uint8),((bytes32[2],uint64[2]),uint8),uint64),bytes32,bytes32,uint256)"
	BlockExecution = "BlockExecution(uint256,bytes32,bytes32)"
)

var (
	OutputProposedTopic = crypto.Keccak256Hash([]byte(OutputProposed))
	NodeConfirmedTopic  = crypto.Keccak256Hash([]byte(NodeConfirmed))
	NodeCreatedTopic    = crypto.Keccak256Hash([]byte(NodeCreated))
	BlockExecutionTopic = crypto.Keccak256Hash([]byte(BlockExecution))
)

const erc20JSONABI = `[
  {
    "name": "balanceOf",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "account", "type": "address"}],
    "outputs": [{"name": "", "type": "uint256"}]
  }
]`

const erc4626JSONABI = `[
  {
    "name": "deposit",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "assets", "type": "uint256"},
      {"name": "receiver", "type": "address"}
    ],
    "outputs": [{"name": "shares", "type": "uint256"}]
  },
  {
    "name": "convertToAssets",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "shares", "type": "uint256"}],
    "outputs": [{"name": "assets", "type": "uint256"}]
  }
]`

const disputeGameFactoryJSONABI = `[
  {
    "name": "gameCount",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "gameCount_", "type": "uint256"}]
  },
  {
    "name": "gameAtIndex",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "_index", "type": "uint256"}],
    "outputs": [
      {"name": "gameType_", "type": "uint32"},
      {"name": "timestamp_", "type": "uint64"},
      {"name": "proxy_", "type": "address"}
    ]
  }
]`

var (
	ERC20ABI              = mustParseABI(erc20JSONABI)
	ERC4626ABI            = mustParseABI(erc4626JSONABI)
	DisputeGameFactoryABI = mustParseABI(disputeGameFactoryJSONABI)
)

func mustParseABI(blob string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(blob))
	if err != nil {
		panic(err)
	}
	return parsed
}
