package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config describes one ledger deployment the engine talks to.
type Config struct {
	RPCEndpoint        string `toml:"RPCEndpoint"`
	ChainID            uint64 `toml:"ChainID"`
	MarketplaceAddress string `toml:"MarketplaceAddress"`
	CreditTokenAddress string `toml:"CreditTokenAddress"`
	// SwapEnabled is false on native-asset-only deployments, where the
	// currency swap pool is structurally absent.
	SwapEnabled bool   `toml:"SwapEnabled"`
	Service     string `toml:"Service"`
	Env         string `toml:"Env"`
}

// Load loads the configuration from the given path, filling defaults for
// absent optional fields.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}

	if strings.TrimSpace(cfg.Service) == "" {
		cfg.Service = "dealmarket"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the engine cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCEndpoint) == "" {
		return fmt.Errorf("config: RPCEndpoint is required")
	}
	if c.ChainID == 0 {
		return fmt.Errorf("config: ChainID is required")
	}
	if !common.IsHexAddress(c.MarketplaceAddress) {
		return fmt.Errorf("config: MarketplaceAddress %q is not a valid address", c.MarketplaceAddress)
	}
	if !common.IsHexAddress(c.CreditTokenAddress) {
		return fmt.Errorf("config: CreditTokenAddress %q is not a valid address", c.CreditTokenAddress)
	}
	return nil
}

// Marketplace returns the parsed marketplace contract address.
func (c *Config) Marketplace() common.Address {
	return common.HexToAddress(c.MarketplaceAddress)
}

// CreditToken returns the parsed credit token contract address.
func (c *Config) CreditToken() common.Address {
	return common.HexToAddress(c.CreditTokenAddress)
}
