package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/relayprotocol/vault-claimer/bridge"
	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/ethclient"
	"github.com/relayprotocol/vault-claimer/logging"
)

var (
	configPath = flag.String("config", "config.yml", "path to the yaml config")
	chainName  = flag.String("chain", "", "check only the given chain")
)

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}

	ctx := context.Background()
	clients := make(map[string]ethclient.Client, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		client, err2 := ethclient.NewClient(chain.RPC.Host, chain.RPC.Timeout, chain.ChainID)
		if err2 != nil {
			logger.WithError(err2).WithField("chain", name).Fatal("can't dial rpc client")
		}
		clients[name] = client
	}

	anyDown := false
	for name, chain := range cfg.Chains {
		if *chainName != "" && *chainName != name {
			continue
		}
		if chain.Stack == "" {
			continue
		}
		client := clients[name]
		if chain.L1Chain != nil {
			client = clients[chain.L1Chain.Name]
		}
		b, err2 := bridge.ForStack(chain, client)
		if err2 != nil {
			logger.WithError(err2).WithField("chain", name).Fatal("can't initialize bridge status checker")
		}
		status := b.CheckStatus(ctx)
		fields := logrus.Fields{
			"chain":    name,
			"chain_id": chain.ChainID,
			"stack":    chain.Stack,
		}
		if err2 = status.Err(); err2 != nil {
			anyDown = true
			logger.WithFields(fields).WithError(err2).Error("bridge is down")
			continue
		}
		logger.WithFields(fields).WithFields(logrus.Fields{
			"last_proof_block":      status.LastProofBlock,
			"time_since_last_proof": status.TimeSinceLastProof,
		}).Info("bridge is up")
	}
	if anyDown {
		os.Exit(1)
	}
}
