// Package config loads the service configuration YAML and translates it
// into the typed inputs registry/engine/poolstats/strategyhistory expect,
// in the manner of the teacher's configs/config.go: a flat YAML struct
// plus a To*Config() translator per consumer.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/pool"
	"github.com/liquidops/apyvault/pkg/rebalance"
	"github.com/liquidops/apyvault/pkg/strategy"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment (§6.4). The entrypoints load
// the signing key only under Prod; under both Prod and Test they wire the
// contract-backed ledger and venues, and Test does not substitute the
// in-memory mocks.
type Environment string

const (
	Prod Environment = "prod"
	Test Environment = "test"
)

// ContractClientYAMLData names one deployed contract's address and ABI
// artifact path, keyed by a short label ("venueA_pool_0", "ledger_usdt",
// ...) that strategy/pool entries reference below.
type ContractClientYAMLData struct {
	Address string `yaml:"address"`
	ABI     string `yaml:"abi"`
}

// PoolYAMLData is one strategy's candidate pool: a (token0, token1)
// pair at a venue, plus the contract-client keys its venue adaptor needs.
type PoolYAMLData struct {
	Token0        string `yaml:"token0"`
	Token1        string `yaml:"token1"`
	Venue         string `yaml:"venue"` // "A" or "B"
	PoolClientKey string `yaml:"pool_client_key"`
	LPClientKey   string `yaml:"lp_client_key"`   // VenueA: LP/router client
	NFTManagerKey string `yaml:"nft_manager_key"` // VenueB: position manager
	GaugeKey      string `yaml:"gauge_key"`       // VenueB: staking gauge
}

// StrategyYAMLData seeds one registry.Strategy's static Catalog (§4.1).
type StrategyYAMLData struct {
	ID             uint64         `yaml:"id"`
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	BaseToken      string         `yaml:"base_token"`
	RiskProfile    string         `yaml:"risk_profile"`
	CandidatePools []PoolYAMLData `yaml:"candidate_pools"`
}

// TimersYAMLData carries Pool-Stats' and Strategy-History's polling intervals (§4.11
// default 300s, §4.12 default 3600s).
type TimersYAMLData struct {
	PoolStatsIntervalSec       int `yaml:"pool_stats_interval_sec"`
	StrategyHistoryIntervalSec int `yaml:"strategy_history_interval_sec"`
}

// Config is the entire YAML configuration file's shape.
type Config struct {
	Environment         Environment                       `yaml:"environment"`
	RPC                 string                            `yaml:"rpc"`
	PrivateKeyEnv       string                             `yaml:"private_key_env"`
	USDTToken           string                            `yaml:"usdt_token"`
	TokenDecimals       map[string]int                    `yaml:"token_decimals"`
	ContractClient      map[string]ContractClientYAMLData `yaml:"contract_client"`
	Strategies          []StrategyYAMLData                `yaml:"strategies"`
	Timers              TimersYAMLData                    `yaml:"timers"`
	ProbeUser           string                            `yaml:"probe_user"`
	AllowSyntheticProbe bool                               `yaml:"allow_synthetic_probe"`
	DSN                 string                            `yaml:"dsn"`
	LedgerClients       map[string]string                 `yaml:"ledger_clients"` // token hex -> contract_client key
}

// Load reads and parses path into a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}

// riskProfileFromString maps the YAML label onto rebalance.Profile,
// defaulting to Balanced for an unrecognized or empty value rather than
// failing strategy load over a config typo.
func riskProfileFromString(s string) rebalance.Profile {
	switch s {
	case "conservative":
		return rebalance.Conservative
	case "aggressive":
		return rebalance.Aggressive
	case "token_accumulator":
		return rebalance.TokenAccumulator
	case "incentive_farmer":
		return rebalance.IncentiveFarmer
	case "stable_only":
		return rebalance.StableOnly
	default:
		return rebalance.Balanced
	}
}

func venueFromString(s string) pool.Venue {
	if s == "B" {
		return pool.VenueB
	}
	return pool.VenueA
}

// ToStrategyCatalog translates the YAML strategy list into the
// registry's startup seed (§4.1), resolving each candidate pool's
// deterministic id via pool.New.
func (c *Config) ToStrategyCatalog() ([]strategy.Catalog, error) {
	out := make([]strategy.Catalog, 0, len(c.Strategies))
	for _, sy := range c.Strategies {
		base := common.HexToAddress(sy.BaseToken)
		pools := make([]pool.Pool, 0, len(sy.CandidatePools))
		for _, py := range sy.CandidatePools {
			p, ok := pool.New(common.HexToAddress(py.Token0), common.HexToAddress(py.Token1), venueFromString(py.Venue))
			if !ok {
				return nil, fmt.Errorf("strategy %d: candidate pool has identical token0/token1", sy.ID)
			}
			pools = append(pools, p)
		}
		out = append(out, strategy.Catalog{
			ID:             sy.ID,
			Name:           sy.Name,
			Description:    sy.Description,
			BaseToken:      base,
			CandidatePools: pools,
			RiskProfile:    riskProfileFromString(sy.RiskProfile),
		})
	}
	return out, nil
}

// PoolConfigs resolves every candidate pool across every strategy into its
// deterministic pool.ID(), paired with the YAML data (venue + contract
// client keys) a venue adaptor needs to serve it. A pool referenced by more
// than one strategy collapses to a single entry, matching the Engine's own
// one-venue-instance-per-Venue wiring.
func (c *Config) PoolConfigs() (map[string]PoolYAMLData, error) {
	out := make(map[string]PoolYAMLData)
	for _, sy := range c.Strategies {
		for _, py := range sy.CandidatePools {
			p, ok := pool.New(common.HexToAddress(py.Token0), common.HexToAddress(py.Token1), venueFromString(py.Venue))
			if !ok {
				return nil, fmt.Errorf("strategy %d: candidate pool has identical token0/token1", sy.ID)
			}
			out[p.ID()] = py
		}
	}
	return out, nil
}

// TokenDecimalsAddrMap resolves the YAML's hex-keyed decimals table into
// the common.Address-keyed map the venue adaptors take.
func (c *Config) TokenDecimalsAddrMap() map[common.Address]int {
	out := make(map[common.Address]int, len(c.TokenDecimals))
	for hex, d := range c.TokenDecimals {
		out[common.HexToAddress(hex)] = d
	}
	return out
}

// LedgerClientsAddrMap resolves the YAML's hex-keyed ledger_clients table
// into a common.Address-keyed map of contract-client labels.
func (c *Config) LedgerClientsAddrMap() map[common.Address]string {
	out := make(map[common.Address]string, len(c.LedgerClients))
	for hex, key := range c.LedgerClients {
		out[common.HexToAddress(hex)] = key
	}
	return out
}

// PoolStatsInterval returns the configured Pool-Stats timer interval,
// defaulting to §4.11's 300s.
func (c *Config) PoolStatsInterval() time.Duration {
	if c.Timers.PoolStatsIntervalSec <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.Timers.PoolStatsIntervalSec) * time.Second
}

// StrategyHistoryInterval returns the configured Strategy-History timer
// interval, defaulting to §4.12's 3600s.
func (c *Config) StrategyHistoryInterval() time.Duration {
	if c.Timers.StrategyHistoryIntervalSec <= 0 {
		return 3600 * time.Second
	}
	return time.Duration(c.Timers.StrategyHistoryIntervalSec) * time.Second
}

// USDTTokenAddress resolves the configured USDT token hex string.
func (c *Config) USDTTokenAddress() common.Address {
	return common.HexToAddress(c.USDTToken)
}

// PrivateKeyHex reads the process's signing key out of the environment
// variable PrivateKeyEnv names, never from the YAML file itself.
func (c *Config) PrivateKeyHex() (string, error) {
	if c.PrivateKeyEnv == "" {
		return "", fmt.Errorf("private_key_env not configured")
	}
	v := os.Getenv(c.PrivateKeyEnv)
	if v == "" {
		return "", fmt.Errorf("environment variable %s not set", c.PrivateKeyEnv)
	}
	return v, nil
}
