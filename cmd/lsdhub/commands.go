package main

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	"lsdHub/internal/config"
	"lsdHub/internal/model"
)

type action func(ctx context.Context, a *app, env model.Env) (model.Response, error)

func claimAction(ctx context.Context, a *app, env model.Env) (model.Response, error) {
	return a.hub.Claim(ctx, env)
}

func reinvestAction(ctx context.Context, a *app, env model.Env) (model.Response, error) {
	return a.hub.Reinvest(ctx, env)
}

func checkSlashAction(ctx context.Context, a *app, env model.Env) (model.Response, error) {
	return a.hub.CheckSlash(ctx, env)
}

func migrateAction(ctx context.Context, a *app, env model.Env) (model.Response, error) {
	return a.hub.Migrate(ctx, env)
}

// runSimple wraps an action that only needs the caller environment.
func runSimple(fn action) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			env, err := a.env(ctx, cmd)
			if err != nil {
				return err
			}
			resp, err := fn(ctx, a, env)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		})
	}
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	genesis, err := config.LoadGenesis(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		env, err := a.env(ctx, cmd)
		if err != nil {
			return err
		}
		resp, err := a.hub.Instantiate(ctx, env, genesis)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}

func runBond(cmd *cobra.Command, _ []string) error {
	amount, err := intFlag(cmd, "amount")
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		supply, err := a.hub.QuerySupply(ctx, 0)
		if err != nil {
			return err
		}
		env, err := a.env(ctx, cmd, model.Coin{Denom: supply.BondDenom, Amount: amount})
		if err != nil {
			return err
		}
		resp, err := a.hub.Bond(ctx, env)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}

func runUnbond(cmd *cobra.Command, _ []string) error {
	holder, _ := cmd.Flags().GetString("holder")
	if holder == "" {
		return fmt.Errorf("holder is required")
	}
	shares, err := intFlag(cmd, "shares")
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		env, err := a.env(ctx, cmd)
		if err != nil {
			return err
		}
		resp, err := a.hub.Receive(ctx, env, holder, shares)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}

func runReply(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetUint64("id")
	replyErr, _ := cmd.Flags().GetString("error")
	return withApp(cmd, func(ctx context.Context, a *app) error {
		env, err := a.env(ctx, cmd)
		if err != nil {
			return err
		}
		resp, err := a.hub.Reply(ctx, env, model.Reply{ID: id, Error: replyErr})
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}

func runSetValidators(cmd *cobra.Command, _ []string) error {
	items, _ := cmd.Flags().GetStringSlice("validators")
	validators, err := config.ParseValidators(items)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		env, err := a.env(ctx, cmd)
		if err != nil {
			return err
		}
		resp, err := a.hub.SetValidators(ctx, env, validators)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}

func runUpdateDiscount(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetString("discount")
	if raw == "" {
		return fmt.Errorf("discount is required")
	}
	discount, err := config.ParseDec(raw)
	if err != nil {
		return fmt.Errorf("parse discount: %w", err)
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		env, err := a.env(ctx, cmd)
		if err != nil {
			return err
		}
		resp, err := a.hub.UpdateLiquidityDiscount(ctx, env, discount)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	})
}

var queryKinds = []string{"config", "supply", "exchange-rate", "target-value", "validators", "claims", "bonded", "unbonding", "workflow"}

func runQuery(cmd *cobra.Command, args []string) error {
	kind := args[0]
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var (
			out interface{}
			err error
		)
		switch kind {
		case "config":
			out, err = a.hub.QueryConfig(ctx)
		case "supply", "exchange-rate", "target-value":
			var now uint64
			if now, err = a.now(ctx, cmd); err != nil {
				return err
			}
			switch kind {
			case "supply":
				out, err = a.hub.QuerySupply(ctx, now)
			case "exchange-rate":
				out, err = a.hub.QueryExchangeRate(ctx, now)
			default:
				out, err = a.hub.QueryTargetValue(ctx, now)
			}
		case "validators":
			out, err = a.hub.QueryValidatorSet(ctx)
		case "claims":
			holder, _ := cmd.Flags().GetString("holder")
			if holder == "" {
				return fmt.Errorf("holder is required")
			}
			out, err = a.hub.QueryClaims(ctx, holder)
		case "bonded":
			out, err = a.hub.QueryBonded(ctx)
		case "unbonding":
			out, err = a.hub.QueryUnbonding(ctx)
		case "workflow":
			out, err = a.hub.QueryWorkflow(ctx)
		default:
			return fmt.Errorf("unknown query %q, expected one of %v", kind, queryKinds)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	})
}

func intFlag(cmd *cobra.Command, name string) (sdkmath.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return sdkmath.Int{}, fmt.Errorf("%s is required", name)
	}
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
