package main

import (
	"fmt"
	"os"

	"github.com/Luismorlan/utxo_ledger/config"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const coin = 100_000_000

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to the yaml config, defaults are used when empty",
	}
	logLevelFlag = &cli.IntFlag{
		Name:  "log-level",
		Usage: "logrus level from 0 (panic) to 6 (trace), overrides the config",
		Value: -1,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledger",
		Usage: "run an in-memory utxo ledger with local wallets",
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Commands: []*cli.Command{
			simulateCmd,
			replCmd,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("ledger exited")
	}
}

// loadConfig reads the config flag and applies the log level.
func loadConfig(c *cli.Context) (config.AppConfig, error) {
	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.ParseAppConfig(path); err != nil {
			return config.AppConfig{}, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if lvl := c.Int(logLevelFlag.Name); lvl >= 0 {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return config.AppConfig{}, err
	}
	log.SetLevel(log.Level(cfg.LogLevel))
	return cfg, nil
}
