package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relayprotocol/vault-claimer/bridge"
	"github.com/relayprotocol/vault-claimer/claimer"
	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/ethclient"
	"github.com/relayprotocol/vault-claimer/logging"
	"github.com/relayprotocol/vault-claimer/onchain"
	"github.com/relayprotocol/vault-claimer/pool"
	"github.com/relayprotocol/vault-claimer/presenter"
	"github.com/relayprotocol/vault-claimer/relayapi"
	"github.com/relayprotocol/vault-claimer/repository"
	"github.com/relayprotocol/vault-claimer/vaultindex"
)

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger = logging.NewWithLevel(cfg.LogLevel)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err2 := http.ListenAndServe(":2112", nil)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)
	index := vaultindex.NewClient(cfg.IndexAPI)
	relay := relayapi.NewClient(cfg.RelayAPI)

	ctx, cancel := context.WithCancel(context.Background())

	clients := make(map[string]ethclient.Client, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		client, err2 := ethclient.NewClient(chain.RPC.Host, chain.RPC.Timeout, chain.ChainID)
		if err2 != nil {
			logger.WithError(err2).WithField("chain", name).Fatal("can't dial rpc client")
		}
		clients[name] = client
	}

	bridges := make(map[uint64]bridge.Bridge, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		if chain.Stack == "" {
			continue
		}
		// bridge contracts of rollup stacks live on the settlement chain
		client := clients[name]
		if chain.L1Chain != nil {
			client = clients[chain.L1Chain.Name]
		}
		b, err2 := bridge.ForStack(chain, client)
		if err2 != nil {
			logger.WithError(err2).WithField("chain", name).Fatal("can't initialize bridge status checker")
		}
		bridges[chain.ChainID] = b
	}

	pools := make(map[claimer.PoolKey]*pool.Pool, len(cfg.Pools))
	poolList := make([]*pool.Pool, 0, len(cfg.Pools))
	for id, poolCfg := range cfg.Pools {
		poolLogger := logger.WithField("pool", id)
		client := clients[poolCfg.ChainName]
		executor := onchain.NewVaultExecutor(relay, poolCfg.Chain.ChainID, poolCfg.Address)
		p := pool.New(poolLogger, pool.Config{
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
		if err = p.Restore(ctx); err != nil {
			poolLogger.WithError(err).Fatal("can't restore pool state")
		}
		for _, origin := range poolCfg.Origins {
			err = p.AddOrigin(ctx, poolCfg.Curator, pool.OriginSettings{
				ChainID:      origin.Chain.ChainID,
				Bridge:       origin.Bridge,
				ProxyBridge:  origin.ProxyBridge,
				Curator:      origin.Curator,
				MaxDebt:      origin.MaxDebt.Int,
				BridgeFeeBps: origin.BridgeFeeBps,
				CoolDown:     origin.CoolDown,
			})
			if err != nil {
				poolLogger.WithError(err).Fatal("can't register configured origin")
			}
		}
		pools[claimer.PoolKey{ChainID: poolCfg.Chain.ChainID, Address: poolCfg.Address}] = p
		poolList = append(poolList, p)
	}

	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), repo, poolList, cfg.Presenter)
		go func() {
			err2 := pr.Serve(cfg.Presenter.Host)
			if err2 != nil {
				logger.WithError(err2).Fatal("can't serve presenter")
			}
		}()
	}

	c := claimer.NewClaimer(logger.WithField("service", "claimer"), cfg.Claimer, index, relay, pools, bridges, repo.Submissions)
	go c.Start(ctx)

	statusMonitor := claimer.NewStatusMonitor(logger.WithField("service", "status_monitor"), cfg.Claimer, cfg.Chains, bridges)
	go statusMonitor.Start(ctx)

	audit := claimer.NewAuditJob(logger.WithField("service", "audit"), index, pools)
	go audit.Start(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	for range sigs {
		cancel()
		logger.Warn("caught CTRL-C, gracefully terminating")
		return
	}
}
