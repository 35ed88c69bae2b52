package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// KeeperConfig holds configuration for the keeper loop.
type KeeperConfig struct {
	Config
	Interval          time.Duration
	Checkpoint        string
	CheckpointEnabled bool
	CheckpointDB      bool
	CheckSlash        bool
	MetricsAddr       string
	Outbox            string
	Once              bool
}

// LoadKeeper merges config file, environment variables, and flags into KeeperConfig.
func LoadKeeper(cfgFile string, flags *pflag.FlagSet) (KeeperConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return KeeperConfig{}, err
	}
	v.SetDefault("interval", time.Minute)
	v.SetDefault("checkpoint", "./data/keeper.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("check-slash", true)
	v.SetDefault("metrics-addr", ":9464")
	v.SetDefault("outbox", "./data/outbox.jsonl")

	base, err := fromViper(v)
	if err != nil {
		return KeeperConfig{}, err
	}

	cfg := KeeperConfig{
		Config:            base,
		Interval:          v.GetDuration("interval"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		CheckpointDB:      v.GetBool("checkpoint-db"),
		CheckSlash:        v.GetBool("check-slash"),
		MetricsAddr:       v.GetString("metrics-addr"),
		Outbox:            v.GetString("outbox"),
		Once:              v.GetBool("once"),
	}
	if cfg.Interval <= 0 {
		return KeeperConfig{}, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.CheckpointDB && cfg.StoreBackend != BackendPostgres {
		return KeeperConfig{}, fmt.Errorf("checkpoint-db requires the %s backend", BackendPostgres)
	}
	return cfg, nil
}
