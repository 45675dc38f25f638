package main

import (
	"context"
	"flag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/ethclient"
	"github.com/relayprotocol/vault-claimer/logging"
	"github.com/relayprotocol/vault-claimer/onchain"
	"github.com/relayprotocol/vault-claimer/pool"
	"github.com/relayprotocol/vault-claimer/relayapi"
	"github.com/relayprotocol/vault-claimer/repository"
)

var (
	configPath    = flag.String("config", "config.yml", "path to the yaml config")
	poolID        = flag.String("pool", "", "pool id from the config to replay the message into")
	originChainID = flag.Uint64("originChainId", 0, "origin chain id of the failed message")
	originBridge  = flag.String("originBridge", "", "origin bridge address of the failed message")
	payloadHex    = flag.String("payload", "", "0x-prefixed abi-encoded (nonce, recipient, amount, timestamp) payload")
)

// replay_message pushes a message that the relay transport never delivered
// through the privileged recovery path. The shared dedup set refuses
// payloads that were consumed before, so re-running it is safe.
func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	if *poolID == "" {
		logger.Fatal("pool is not specified")
	}
	poolCfg, ok := cfg.Pools[*poolID]
	if !ok {
		logger.WithField("pool", *poolID).Fatal("pool config for given pool is not found")
	}
	if *originChainID == 0 || *originBridge == "" || *payloadHex == "" {
		logger.Fatal("originChainId, originBridge and payload should all be specified")
	}
	payload, err := hexutil.Decode(*payloadHex)
	if err != nil {
		logger.WithError(err).Fatal("can't decode payload")
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	client, err := ethclient.NewClient(poolCfg.Chain.RPC.Host, poolCfg.Chain.RPC.Timeout, poolCfg.Chain.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial rpc client")
	}
	relay := relayapi.NewClient(cfg.RelayAPI)
	repo := repository.NewRepo(dbConn)

	executor := onchain.NewVaultExecutor(relay, poolCfg.Chain.ChainID, poolCfg.Address)
	p := pool.New(logger, pool.Config{
		ChainID:       poolCfg.Chain.ChainID,
		Address:       poolCfg.Address,
		Asset:         poolCfg.Asset,
		Curator:       poolCfg.Curator,
		WrappedNative: poolCfg.WrappedNative,
	}, pool.Store{
		Origins:           repo.Origins,
		ProcessedMessages: repo.ProcessedMessages,
		Claims:            repo.Claims,
	},
		onchain.NewAssetBalances(client, poolCfg.Asset, poolCfg.WrappedNative),
		executor,
		onchain.NewYieldVault(client, executor, poolCfg.YieldPool),
	)

	ctx := context.Background()
	if err = p.Restore(ctx); err != nil {
		logger.WithError(err).Fatal("can't restore pool state")
	}
	err = p.ProcessFailedHandler(ctx, poolCfg.Curator, *originChainID, common.HexToAddress(*originBridge), payload)
	if err != nil {
		logger.WithError(err).Fatal("can't replay failed message")
	}
	logger.Info("failed message replayed")
}
