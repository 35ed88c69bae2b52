package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LSDHUB"

// Store backends.
const (
	BackendLevelDB  = "leveldb"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	StoreBackend      string
	StorePath         string
	PGDSN             string
	Namespace         string
	RPCURL            string
	HubAddress        string
	StakingPrecompile string
	RPCRate           float64
	RPCBurst          int
	BondDenom         string
	Sender            string
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		StoreBackend:      strings.ToLower(v.GetString("store-backend")),
		StorePath:         v.GetString("store-path"),
		PGDSN:             v.GetString("pg-dsn"),
		Namespace:         v.GetString("namespace"),
		RPCURL:            v.GetString("rpc"),
		HubAddress:        v.GetString("hub-address"),
		StakingPrecompile: v.GetString("staking-precompile"),
		RPCRate:           v.GetFloat64("rpc-rate"),
		RPCBurst:          v.GetInt("rpc-burst"),
		BondDenom:         v.GetString("bond-denom"),
		Sender:            v.GetString("sender"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	switch cfg.StoreBackend {
	case BackendLevelDB, BackendBadger:
		if cfg.StorePath == "" {
			return Config{}, fmt.Errorf("store-path is required for the %s backend", cfg.StoreBackend)
		}
	case BackendPostgres:
		if cfg.PGDSN == "" {
			return Config{}, fmt.Errorf("pg-dsn is required for the %s backend", BackendPostgres)
		}
	default:
		return Config{}, fmt.Errorf("unknown store-backend %q", cfg.StoreBackend)
	}
	if cfg.RPCRate < 0 {
		return Config{}, fmt.Errorf("rpc-rate must not be negative")
	}
	if cfg.RPCBurst < 1 {
		cfg.RPCBurst = 1
	}
	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store-backend", BackendLevelDB)
	v.SetDefault("store-path", "./data/hub")
	v.SetDefault("namespace", "default")
	v.SetDefault("rpc-burst", 1)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// listValue reads key as a list. Flags and env vars carry comma separated
// strings, config files carry sequences.
func listValue(v *viper.Viper, key string) []string {
	var raw []string
	switch typed := v.Get(key).(type) {
	case string:
		raw = strings.Split(typed, ",")
	case []string:
		raw = typed
	case []interface{}:
		for _, item := range typed {
			raw = append(raw, fmt.Sprint(item))
		}
	}
	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
