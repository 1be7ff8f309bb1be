// Package wiring builds the shared production dependency graph (contract
// clients, venue adaptors, the ledger) that cmd/engine, cmd/poolstats and
// cmd/strategyhistory each need, generalized from the teacher's cmd/main.go
// single wiring point into one helper the three service entrypoints share.
package wiring

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/liquidops/apyvault/internal/config"
	"github.com/liquidops/apyvault/pkg/contractclient"
	"github.com/liquidops/apyvault/pkg/ledger"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/router"
	"github.com/liquidops/apyvault/pkg/txlistener"
	"github.com/liquidops/apyvault/pkg/venue"
)

// BuildContractClients constructs one EthContractClient per labeled entry
// in defs, reading each entry's ABI artifact off disk exactly as
// go-ethereum's own abi.JSON parses the teacher's hardcoded ABIs, since the
// teacher's util.LoadABI/util.LoadABIFromHardhatArtifact helpers its
// cmd/main.go calls are never implemented anywhere in the retrieved source.
func BuildContractClients(client *ethclient.Client, chainID *big.Int, defs map[string]config.ContractClientYAMLData) (map[string]contractclient.ContractClient, error) {
	out := make(map[string]contractclient.ContractClient, len(defs))
	for label, def := range defs {
		raw, err := os.ReadFile(def.ABI)
		if err != nil {
			return nil, fmt.Errorf("contract client %q: failed to read ABI file %s: %w", label, def.ABI, err)
		}
		parsed, err := abi.JSON(strings.NewReader(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("contract client %q: failed to parse ABI: %w", label, err)
		}
		out[label] = contractclient.NewEthContractClient(client, common.HexToAddress(def.Address), &parsed, chainID)
	}
	return out, nil
}

// BuildVenues constructs one VenueA and/or one VenueB liquidity client, each
// bound to the first pool of its kind found across every strategy's
// candidate pools, plus the swap router VenueA registers itself into (only
// VenueA implements router.Swapper — Open Question 2). The Engine holds
// exactly one client per pool.Venue, so a config
// naming more than one pool per venue collapses to its first entry;
// callers should keep one venue's pools consistent in practice. led must
// already be built (BuildLedger), since both venue adaptors need it to
// reserve transfer fees (§4.4).
func BuildVenues(cfg *config.Config, clients map[string]contractclient.ContractClient, led ledger.Ledger, myAddr common.Address, pk *ecdsa.PrivateKey, tl txlistener.TxListener) (map[pool.Venue]venue.LiquidityClient, *router.Router, error) {
	pools, err := cfg.PoolConfigs()
	if err != nil {
		return nil, nil, err
	}
	decimals := cfg.TokenDecimalsAddrMap()
	swapRouter := router.New()

	out := make(map[pool.Venue]venue.LiquidityClient)
	for _, py := range pools {
		v := venueFromYAML(py)
		if _, exists := out[v]; exists {
			continue
		}
		token0, token1 := common.HexToAddress(py.Token0), common.HexToAddress(py.Token1)
		p, ok := pool.New(token0, token1, v)
		if !ok {
			return nil, nil, fmt.Errorf("pool %s/%s: identical token0/token1", py.Token0, py.Token1)
		}

		switch v {
		case pool.VenueA:
			poolClient, ok := clients[py.PoolClientKey]
			if !ok {
				return nil, nil, fmt.Errorf("venue A pool %s: unknown pool_client_key %q", p.ID(), py.PoolClientKey)
			}
			lpClient, ok := clients[py.LPClientKey]
			if !ok {
				return nil, nil, fmt.Errorf("venue A pool %s: unknown lp_client_key %q", p.ID(), py.LPClientKey)
			}
			va := venue.NewVenueA(venue.VenueAConfig{
				Pool:          p,
				PoolClient:    poolClient,
				LPClient:      lpClient,
				USDTToken:     cfg.USDTTokenAddress(),
				USDTDecimals:  decimals[cfg.USDTTokenAddress()],
				TokenDecimals: decimals,
				Ledger:        led,
				MyAddr:        myAddr,
				PrivateKey:    pk,
				TxListener:    tl,
			}, swapRouter)
			swapRouter.Register(va)
			out[v] = va
		case pool.VenueB:
			poolClient, ok := clients[py.PoolClientKey]
			if !ok {
				return nil, nil, fmt.Errorf("venue B pool %s: unknown pool_client_key %q", p.ID(), py.PoolClientKey)
			}
			nftManager, ok := clients[py.NFTManagerKey]
			if !ok {
				return nil, nil, fmt.Errorf("venue B pool %s: unknown nft_manager_key %q", p.ID(), py.NFTManagerKey)
			}
			gauge, ok := clients[py.GaugeKey]
			if !ok {
				return nil, nil, fmt.Errorf("venue B pool %s: unknown gauge_key %q", p.ID(), py.GaugeKey)
			}
			vb, err := venue.NewVenueB(venue.VenueBConfig{
				PoolClient:    poolClient,
				NFTManager:    nftManager,
				Gauge:         gauge,
				TokenDecimals: decimals,
				Ledger:        led,
				MyAddr:        myAddr,
				PrivateKey:    pk,
				TxListener:    tl,
			}).WithPool(context.Background(), token0, token1)
			if err != nil {
				return nil, nil, fmt.Errorf("venue B pool %s: %w", p.ID(), err)
			}
			out[v] = vb
		}
	}
	return out, swapRouter, nil
}

// BuildLedger constructs the production Ledger, mapping every configured
// token address to the contract client that serves it (§ "Persistence"/
// Prod environment, §6.4).
func BuildLedger(cfg *config.Config, clients map[string]contractclient.ContractClient, myAddr common.Address, pk *ecdsa.PrivateKey, tl txlistener.TxListener) (ledger.Ledger, error) {
	byToken := make(map[common.Address]contractclient.ContractClient, len(cfg.LedgerClients))
	for tokenAddr, key := range cfg.LedgerClientsAddrMap() {
		c, ok := clients[key]
		if !ok {
			return nil, fmt.Errorf("ledger token %s: unknown contract client key %q", tokenAddr.Hex(), key)
		}
		byToken[tokenAddr] = c
	}
	return ledger.NewEthLedger(byToken, myAddr, pk, tl), nil
}

func venueFromYAML(py config.PoolYAMLData) pool.Venue {
	if py.Venue == "B" {
		return pool.VenueB
	}
	return pool.VenueA
}
