package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type BridgeStack string

const (
	StackOptimism        BridgeStack = "optimism"
	StackOptimismBedrock BridgeStack = "optimism-bedrock"
	StackArbitrum        BridgeStack = "arbitrum"
	StackZkSync          BridgeStack = "zksync"
	StackCCTP            BridgeStack = "cctp"
	StackEverclear       BridgeStack = "everclear"
)

func (s BridgeStack) Valid() bool {
	switch s {
	case StackOptimism, StackOptimismBedrock, StackArbitrum, StackZkSync, StackCCTP, StackEverclear:
		return true
	}
	return false
}

// BigInt wraps big.Int to decode decimal wei amounts from yaml strings.
type BigInt struct {
	*big.Int
}

func (b *BigInt) UnmarshalYAML(node *yaml.Node) error {
	v, ok := new(big.Int).SetString(node.Value, 10)
	if !ok {
		return fmt.Errorf("can't parse %q as a decimal integer", node.Value)
	}
	b.Int = v
	return nil
}

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

// NativeBridgeConfig holds the L1 contracts of a chain's native bridge,
// only the fields relevant to its stack are set.
type NativeBridgeConfig struct {
	OutputOracle       common.Address `yaml:"output_oracle"`
	DisputeGameFactory common.Address `yaml:"dispute_game_factory"`
	Rollup             common.Address `yaml:"rollup"`
	DiamondProxy       common.Address `yaml:"diamond_proxy"`
}

type ChainConfig struct {
	Name              string              `yaml:"-"`
	RPC               *RPCConfig          `yaml:"rpc"`
	ChainID           uint64              `yaml:"chain_id"`
	Stack             BridgeStack         `yaml:"stack"`
	L1ChainName       string              `yaml:"l1_chain"`
	L1Chain           *ChainConfig        `yaml:"-"`
	NativeBridge      *NativeBridgeConfig `yaml:"bridge"`
	LookbackBlocks    uint64              `yaml:"lookback_blocks"`
	MaxProofStaleness time.Duration       `yaml:"max_proof_staleness"`
	MaxProofBlockLag  uint64              `yaml:"max_proof_block_lag"`
	FinalizationDelay time.Duration       `yaml:"finalization_delay"`
}

type OriginConfig struct {
	ChainName    string         `yaml:"chain"`
	Chain        *ChainConfig   `yaml:"-"`
	Bridge       common.Address `yaml:"bridge"`
	ProxyBridge  common.Address `yaml:"proxy_bridge"`
	MaxDebt      BigInt         `yaml:"max_debt"`
	BridgeFeeBps uint64         `yaml:"bridge_fee_bps"`
	CoolDown     time.Duration  `yaml:"cooldown"`
	Curator      common.Address `yaml:"curator"`
}

type PoolConfig struct {
	ID            string          `yaml:"-"`
	ChainName     string          `yaml:"chain"`
	Chain         *ChainConfig    `yaml:"-"`
	Address       common.Address  `yaml:"address"`
	Asset         common.Address  `yaml:"asset"`
	Curator       common.Address  `yaml:"curator"`
	YieldPool     common.Address  `yaml:"yield_pool"`
	WrappedNative bool            `yaml:"wrapped_native"`
	Origins       []*OriginConfig `yaml:"origins"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type IndexAPIConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type RelayAPIConfig struct {
	Host    string        `yaml:"host"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type ClaimerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	StatusInterval time.Duration `yaml:"status_interval"`
	ProveDelay     time.Duration `yaml:"prove_delay"`
}

type PresenterConfig struct {
	Host          string `yaml:"host"`
	CuratorAPIKey string `yaml:"curator_api_key"`
}

type Config struct {
	Chains    map[string]*ChainConfig `yaml:"chains"`
	Pools     map[string]*PoolConfig  `yaml:"pools"`
	IndexAPI  *IndexAPIConfig         `yaml:"index_api"`
	RelayAPI  *RelayAPIConfig         `yaml:"relay_api"`
	Claimer   *ClaimerConfig          `yaml:"claimer"`
	DBConfig  *DBConfig               `yaml:"postgres"`
	Presenter *PresenterConfig        `yaml:"presenter"`
	LogLevel  logrus.Level            `yaml:"log_level"`
}

const (
	defaultClaimerInterval = time.Minute
	defaultStatusInterval  = 5 * time.Minute
	defaultProveDelay      = 30 * time.Minute
	defaultLookbackBlocks  = 10000
	defaultProofStaleness  = 5 * time.Hour
)

func ReadConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if cfg.Claimer == nil {
		cfg.Claimer = &ClaimerConfig{}
	}
	if cfg.Claimer.Interval == 0 {
		cfg.Claimer.Interval = defaultClaimerInterval
	}
	if cfg.Claimer.StatusInterval == 0 {
		cfg.Claimer.StatusInterval = defaultStatusInterval
	}
	if cfg.Claimer.ProveDelay == 0 {
		cfg.Claimer.ProveDelay = defaultProveDelay
	}
	for name, chain := range cfg.Chains {
		chain.Name = name
		if chain.RPC == nil {
			return nil, fmt.Errorf("chain %s has no rpc config", name)
		}
		// chains without a stack tag only settle other chains' bridges
		if chain.Stack != "" && !chain.Stack.Valid() {
			return nil, fmt.Errorf("chain %s has unknown bridge stack %q", name, chain.Stack)
		}
		if chain.LookbackBlocks == 0 {
			chain.LookbackBlocks = defaultLookbackBlocks
		}
		if chain.MaxProofStaleness == 0 {
			chain.MaxProofStaleness = defaultProofStaleness
		}
		if chain.L1ChainName != "" {
			l1, ok := cfg.Chains[chain.L1ChainName]
			if !ok {
				return nil, fmt.Errorf("chain %s refers to unknown l1 chain %s", name, chain.L1ChainName)
			}
			chain.L1Chain = l1
		}
	}
	for id, pool := range cfg.Pools {
		pool.ID = id
		chain, ok := cfg.Chains[pool.ChainName]
		if !ok {
			return nil, fmt.Errorf("pool %s refers to unknown chain %s", id, pool.ChainName)
		}
		pool.Chain = chain
		for _, origin := range pool.Origins {
			originChain, ok2 := cfg.Chains[origin.ChainName]
			if !ok2 {
				return nil, fmt.Errorf("pool %s origin refers to unknown chain %s", id, origin.ChainName)
			}
			origin.Chain = originChain
			if origin.MaxDebt.Int == nil {
				return nil, fmt.Errorf("pool %s origin %s has no max_debt", id, origin.Bridge)
			}
			if origin.Curator == (common.Address{}) {
				origin.Curator = pool.Curator
			}
		}
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
