// Command engine runs Service A (§4.3, §4.5, §4.7-§4.9, §6.1): the
// deposit/withdraw/rebalance surface, plus a cron-driven auto-rebalance
// cycle over every strategy in the catalog. Grounded on the teacher's
// cmd/main.go wiring style (ethclient.Dial, constructing the recorder
// then the service), generalized from one hardcoded Blackhole instance
// to the registry-resolved multi-strategy, multi-venue Engine, and on
// elys-network AVM's per-cycle uuid.New().String() correlation id.
package main

import (
	"context"
	"crypto/ecdsa"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/liquidops/apyvault/internal/config"
	"github.com/liquidops/apyvault/internal/db"
	"github.com/liquidops/apyvault/internal/logging"
	"github.com/liquidops/apyvault/internal/wiring"
	"github.com/liquidops/apyvault/pkg/engine"
	"github.com/liquidops/apyvault/pkg/poolstats"
	"github.com/liquidops/apyvault/pkg/registry"
	"github.com/liquidops/apyvault/pkg/txlistener"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const rebalanceCronSpec = "@every 10m"

func main() {
	log := logging.GetForComponent("engine_cmd")

	cfgPath := os.Getenv("ENGINE_CONFIG")
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

	runAutoRebalance(eng, log)

	log.Info().Msg("engine started")
	select {}
}

func runAutoRebalance(eng *engine.Engine, log zerolog.Logger) {
	c := cron.New()
	_, err := c.AddFunc(rebalanceCronSpec, func() {
		cycleID := uuid.New().String()
		cycleLog := log.With().Str("cycle_id", cycleID).Logger()
		for _, s := range eng.GetStrategies() {
			rebalanced, err := eng.Rebalance(context.Background(), s.ID, cycleID)
			if err != nil {
				cycleLog.Error().Err(err).Uint64("strategy_id", s.ID).Msg("auto-rebalance failed")
				continue
			}
			if rebalanced {
				cycleLog.Info().Uint64("strategy_id", s.ID).Msg("auto-rebalance moved position")
			}
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule auto-rebalance cron")
	}
	c.Start()
}
