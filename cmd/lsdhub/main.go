package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lsdhub",
		Short:        "Liquid staking hub accountant",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store-backend", "leveldb", "state backend (leveldb, badger, postgres)")
	flags.String("store-path", "./data/hub", "leveldb directory")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("namespace", "default", "pool namespace inside the Postgres tables")
	flags.String("rpc", "", "EVM RPC URL of the staking chain")
	flags.String("hub-address", "", "hub account address")
	flags.String("staking-precompile", "", "staking precompile address")
	flags.Float64("rpc-rate", 0, "max RPC requests per second (0 disables the limit)")
	flags.Int("rpc-burst", 1, "RPC request burst")
	flags.String("bond-denom", "", "native bond denomination")
	flags.String("sender", "", "caller address")
	flags.String("time", "", "block time override (unix seconds or RFC3339)")
	flags.Int("max-retries", 5, "maximum retry attempts for chain reads")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the pool from genesis parameters",
		RunE:  runInit,
	}
	initCmd.Flags().String("owner", "", "owner address")
	initCmd.Flags().String("token-contract", "", "share token contract")
	initCmd.Flags().String("treasury", "", "commission recipient")
	initCmd.Flags().String("commission", "0", "commission on rewards (decimal or percent)")
	initCmd.Flags().StringSlice("validators", nil, "validator:weight pairs (comma-separated)")
	initCmd.Flags().String("epoch-period", "23h", "reinvest period")
	initCmd.Flags().String("unbond-period", "28d", "staking unbonding time")
	initCmd.Flags().Uint64("max-concurrent-unbondings", 7, "undelegation rounds per unbond period")
	initCmd.Flags().String("liquidity-discount", "0", "discount applied by the target value query")
	initCmd.Flags().String("tombstone-threshold", "0.0001", "stake loss fraction treated as a slash")
	initCmd.Flags().String("slashing-safety-margin", "1h", "window around unbonding maturity that postpones slashing checks")
	root.AddCommand(initCmd)

	bondCmd := &cobra.Command{
		Use:   "bond",
		Short: "Record a deposit and mint shares to the sender",
		RunE:  runBond,
	}
	bondCmd.Flags().String("amount", "", "deposited amount in base units")
	root.AddCommand(bondCmd)

	unbondCmd := &cobra.Command{
		Use:   "unbond",
		Short: "Burn shares received by the token hook and book a claim",
		RunE:  runUnbond,
	}
	unbondCmd.Flags().String("holder", "", "account whose shares were sent")
	unbondCmd.Flags().String("shares", "", "shares sent")
	root.AddCommand(unbondCmd)

	root.AddCommand(&cobra.Command{
		Use:   "claim",
		Short: "Pay out the sender's matured claims",
		RunE:  runSimple(claimAction),
	})

	root.AddCommand(&cobra.Command{
		Use:   "reinvest",
		Short: "Start a reinvest cycle",
		RunE:  runSimple(reinvestAction),
	})

	replyCmd := &cobra.Command{
		Use:   "reply",
		Short: "Deliver the outcome of a relayed instruction",
		RunE:  runReply,
	}
	replyCmd.Flags().Uint64("id", 0, "reply id")
	replyCmd.Flags().String("error", "", "error reported by the chain, empty on success")
	root.AddCommand(replyCmd)

	setValidatorsCmd := &cobra.Command{
		Use:   "set-validators",
		Short: "Replace validator weights and rebalance",
		RunE:  runSetValidators,
	}
	setValidatorsCmd.Flags().StringSlice("validators", nil, "validator:weight pairs (comma-separated)")
	root.AddCommand(setValidatorsCmd)

	discountCmd := &cobra.Command{
		Use:   "update-discount",
		Short: "Change the liquidity discount",
		RunE:  runUpdateDiscount,
	}
	discountCmd.Flags().String("discount", "", "new discount (decimal or percent)")
	root.AddCommand(discountCmd)

	root.AddCommand(&cobra.Command{
		Use:   "check-slash",
		Short: "Compare bonded stake with the chain and record slashing",
		RunE:  runSimple(checkSlashAction),
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Upgrade state written by an older version",
		RunE:  runSimple(migrateAction),
	})

	queryCmd := &cobra.Command{
		Use:       "query <config|supply|exchange-rate|target-value|validators|claims|bonded|unbonding|workflow>",
		Short:     "Read pool state",
		Args:      cobra.ExactArgs(1),
		ValidArgs: queryKinds,
		RunE:      runQuery,
	}
	queryCmd.Flags().String("holder", "", "holder for the claims query")
	root.AddCommand(queryCmd)

	keeperCmd := &cobra.Command{
		Use:   "keeper",
		Short: "Run reinvest and slashing checks on a schedule",
		RunE:  runKeeper,
	}
	keeperCmd.Flags().Duration("interval", time.Minute, "delay between rounds")
	keeperCmd.Flags().String("checkpoint", "./data/keeper.json", "checkpoint file path")
	keeperCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	keeperCmd.Flags().Bool("checkpoint-db", false, "store the checkpoint in Postgres")
	keeperCmd.Flags().Bool("check-slash", true, "run the slashing check every round")
	keeperCmd.Flags().String("metrics-addr", ":9464", "address serving /metrics, empty disables")
	keeperCmd.Flags().String("outbox", "./data/outbox.jsonl", "JSONL file receiving emitted instructions")
	keeperCmd.Flags().Bool("once", false, "run a single round and exit")
	root.AddCommand(keeperCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
