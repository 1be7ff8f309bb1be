// Command poolstats runs Service B (§4.11): the periodic pool snapshot
// timer and the get_pool_metrics/get_pools_history read surface other
// services consume. Grounded on the teacher's cmd/main.go dial-then-wire
// style, generalized to Pool-Stats' own registry of tracked pools
// (separate from the strategy registry, per §4.11).
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
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/poolstats"
	"github.com/liquidops/apyvault/pkg/txlistener"
)

func main() {
	log := logging.GetForComponent("poolstats_cmd")

	cfgPath := os.Getenv("POOLSTATS_CONFIG")
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

	venues, _, err := wiring.BuildVenues(cfg, clients, led, myAddr, privateKey, tl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build venue clients")
	}

	poolStatsStore := db.NewPoolStatsStore(store)
	svc := poolstats.New(venues, poolStatsStore)

	pools, err := cfg.PoolConfigs()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve configured pools")
	}
	tracked, err := poolStatsStore.ListPools()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tracked pools")
	}
	already := make(map[string]bool, len(tracked))
	for _, tp := range tracked {
		already[tp.Pool.ID()] = true
	}
	for poolID, py := range pools {
		if already[poolID] {
			continue
		}
		venueTag := pool.VenueA
		if py.Venue == "B" {
			venueTag = pool.VenueB
		}
		p, ok := pool.New(common.HexToAddress(py.Token0), common.HexToAddress(py.Token1), venueTag)
		if !ok {
			log.Fatal().Str("pool_id", poolID).Msg("configured pool has identical token0/token1")
		}
		if err := svc.AddPool(p); err != nil {
			log.Fatal().Err(err).Str("pool_id", poolID).Msg("failed to register tracked pool")
		}
	}

	if err := svc.Start(context.Background(), cfg.PoolStatsInterval()); err != nil {
		log.Fatal().Err(err).Msg("failed to start snapshot timer")
	}

	log.Info().Msg("poolstats started")
	select {}
}
