// Command strategyhistory runs Service C (§4.12): the probe-deposit
// bootstrap and periodic strategy snapshot timer, wired to a full Engine
// instance purely for its ProbeDeposit/Snapshot/GetStrategies methods.
// Grounded on the teacher's cmd/main.go wiring style, generalized the
// same way cmd/engine and cmd/poolstats are.
package main

import (
	"context"
	"crypto/ecdsa"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/liquidops/apyvault/internal/config"
	"github.com/liquidops/apyvault/internal/db"
	"github.com/liquidops/apyvault/internal/logging"
	"github.com/liquidops/apyvault/internal/wiring"
	"github.com/liquidops/apyvault/pkg/engine"
	"github.com/liquidops/apyvault/pkg/poolstats"
	"github.com/liquidops/apyvault/pkg/registry"
	"github.com/liquidops/apyvault/pkg/strategyhistory"
	"github.com/liquidops/apyvault/pkg/txlistener"
)

func main() {
	log := logging.GetForComponent("strategyhistory_cmd")

	cfgPath := os.Getenv("STRATEGYHISTORY_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	client, err := ethclient.Dial(cfg.RPC)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial RPC")
	}
	chainID, err := client.ChainID(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch chain id")
	}

	clients, err := wiring.BuildContractClients(client, chainID, cfg.ContractClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build contract clients")
	}

	store, err := db.Open(cfg.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	var privateKey *ecdsa.PrivateKey
	var myAddr common.Address
	if cfg.Environment == config.Prod {
		pkHex, err := cfg.PrivateKeyHex()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read signing key")
		}
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(pkHex, "0x"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse signing key")
		}
		myAddr = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	tl := txlistener.NewTxListener(client)

	led, err := wiring.BuildLedger(cfg, clients, myAddr, privateKey, tl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build ledger")
	}

	venues, swapRouter, err := wiring.BuildVenues(cfg, clients, led, myAddr, privateKey, tl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build venue clients")
	}

	catalog, err := cfg.ToStrategyCatalog()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build strategy catalog")
	}

	strategyStore := db.NewStrategyStore(store)
	eventStore := db.NewEventStore(store)
	poolStatsStore := db.NewPoolStatsStore(store)
	historyStore := db.NewStrategyHistoryStore(store)

	reg, err := registry.New(catalog, strategyStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load strategy registry")
	}

	poolStats := poolstats.New(venues, poolStatsStore)

	eng := engine.New(engine.Config{
		Registry:   reg,
		Venues:     venues,
		SwapRouter: swapRouter,
		Ledger:     led,
		Events:     eventStore,
		PoolStats:  poolStats,
		PoolScores: poolStats,
		USDTToken:  cfg.USDTTokenAddress(),
	})

	svc := strategyhistory.New(strategyhistory.Config{
		Store:               historyStore,
		ProbeUser:           cfg.ProbeUser,
		AllowSyntheticProbe: cfg.AllowSyntheticProbe || cfg.Environment == config.Test,
		ListStrategies: func() []strategyhistory.StrategyRef {
			catalog := eng.GetStrategies()
			refs := make([]strategyhistory.StrategyRef, len(catalog))
			for i, s := range catalog {
				refs[i] = strategyhistory.StrategyRef{ID: s.ID}
			}
			return refs
		},
		ProbeDeposit: eng.ProbeDeposit,
		Snapshot:     eng.Snapshot,
	})

	if err := svc.Start(context.Background(), cfg.StrategyHistoryInterval()); err != nil {
		log.Fatal().Err(err).Msg("failed to start history timer")
	}

	log.Info().Msg("strategyhistory started")
	select {}
}
