package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DefaultLogLevel        = int(log.InfoLevel)
	DefaultBlockSize       = 10
	DefaultMempoolCapacity = 1000
	DefaultWatchInterval   = time.Second
)

// Allocation credits Amount to Address in the genesis ledger.
type Allocation struct {
	// Hex encoded public key.
	Address string `yaml:"address"`
	Amount  uint64 `yaml:"amount"`
}

// This is the global app config for the ledger.
type AppConfig struct {
	// Logrus level, 0 (panic) to 6 (trace).
	LogLevel int `yaml:"log_level"`
	// How many pending transactions go into one block at most.
	BlockSize int `yaml:"block_size"`
	// Max staged transactions in the pool, 0 for unbounded.
	MempoolCapacity int `yaml:"mempool_capacity"`
	// How often the chain watcher polls for new blocks.
	WatchInterval time.Duration `yaml:"watch_interval"`
	// Outputs seeded into the genesis ledger.
	Genesis []Allocation `yaml:"genesis"`
}

func Default() AppConfig {
	return AppConfig{
		LogLevel:        DefaultLogLevel,
		BlockSize:       DefaultBlockSize,
		MempoolCapacity: DefaultMempoolCapacity,
		WatchInterval:   DefaultWatchInterval,
	}
}

// ParseAppConfig reads the yaml file at path on top of the defaults.
func ParseAppConfig(path string) (AppConfig, error) {
	c := Default()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %s", model.ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

func (c AppConfig) Validate() error {
	if c.LogLevel < int(log.PanicLevel) || c.LogLevel > int(log.TraceLevel) {
		return fmt.Errorf("%w: log_level must be between %d and %d", model.ErrInvalidConfig, log.PanicLevel, log.TraceLevel)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be positive", model.ErrInvalidConfig)
	}
	if c.MempoolCapacity < 0 {
		return fmt.Errorf("%w: mempool_capacity must not be negative", model.ErrInvalidConfig)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("%w: watch_interval must be positive", model.ErrInvalidConfig)
	}
	if _, err := c.GenesisAllocs(); err != nil {
		return err
	}
	return nil
}

// GenesisAllocs decodes the genesis section.
func (c AppConfig) GenesisAllocs() ([]model.GenesisAlloc, error) {
	allocs := make([]model.GenesisAlloc, 0, len(c.Genesis))
	for _, a := range c.Genesis {
		pk, err := utils.HexToPublicKey(a.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: genesis address %q: %s", model.ErrInvalidConfig, a.Address, err)
		}
		allocs = append(allocs, model.GenesisAlloc{Owner: pk, Amount: a.Amount})
	}
	return allocs, nil
}
