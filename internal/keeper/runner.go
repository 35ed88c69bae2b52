// Package keeper drives a hub on a schedule: it starts reinvest cycles when
// an epoch is due, relays the emitted instructions and feeds their replies
// back, and runs the slashing check.
package keeper

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"lsdHub/internal/hub"
	"lsdHub/internal/model"
)

// Dispatcher executes instructions and returns the replies they requested.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []model.Msg) ([]model.Reply, error)
}

// Clock reports the current block time.
type Clock interface {
	Now(ctx context.Context) (uint64, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func(ctx context.Context) (uint64, error)

func (f ClockFunc) Now(ctx context.Context) (uint64, error) { return f(ctx) }

// Observer receives keeper measurements.
type Observer interface {
	ObserveExchangeRate(rate sdkmath.LegacyDec)
	ObserveAPR(apr float64)
	KeeperRun(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveExchangeRate(sdkmath.LegacyDec) {}
func (nopObserver) ObserveAPR(float64)                    {}
func (nopObserver) KeeperRun(error)                       {}

// RunConfig holds runtime settings for the keeper.
type RunConfig struct {
	Sender       string
	Interval     time.Duration
	CheckSlash   bool
	MaxRetries   int
	RetryBackoff time.Duration
	Once         bool
}

// Runner periodically executes hub maintenance.
type Runner struct {
	cfg        RunConfig
	hub        *hub.Hub
	dispatcher Dispatcher
	clock      Clock
	state      StateStore
	observer   Observer
	logger     *zap.Logger

	lastRate rateSample
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, h *hub.Hub, dispatcher Dispatcher, clock Clock, state StateStore, observer Observer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runner{
		cfg:        cfg,
		hub:        h,
		dispatcher: dispatcher,
		clock:      clock,
		state:      state,
		observer:   observer,
		logger:     logger,
	}
}

// Run executes the keeper loop until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.hub == nil {
		return fmt.Errorf("hub is nil")
	}
	if r.dispatcher == nil {
		return fmt.Errorf("dispatcher is nil")
	}
	if r.clock == nil {
		return fmt.Errorf("clock is nil")
	}
	if !r.cfg.Once && r.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}

	if r.state != nil {
		cp, ok, err := r.state.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			r.lastRate = cp.sample()
			r.logger.Info("resume from checkpoint",
				zap.Uint64("last_reinvest", cp.LastReinvest),
				zap.String("exchange_rate", cp.ExchangeRate.String()),
			)
		}
	}

	for {
		err := r.Tick(ctx)
		r.observer.KeeperRun(err)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if r.cfg.Once {
				return err
			}
			r.logger.Error("keeper tick failed", zap.Error(err))
		}
		if r.cfg.Once {
			return nil
		}

		timer := time.NewTimer(r.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tick runs one round: slashing check, reinvest when due, then metrics.
func (r *Runner) Tick(ctx context.Context) error {
	now, err := r.now(ctx)
	if err != nil {
		return err
	}

	if r.cfg.CheckSlash {
		if err := r.checkSlash(ctx, now); err != nil {
			return err
		}
	}

	reinvested, err := r.reinvestIfDue(ctx, now)
	if err != nil {
		return err
	}

	rate, ok := r.observe(ctx, now, reinvested)
	if reinvested && r.state != nil {
		cp := Checkpoint{LastReinvest: now}
		if ok {
			cp.ExchangeRate = rate
		}
		if err := r.state.Save(ctx, cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}
	return nil
}

func (r *Runner) now(ctx context.Context) (uint64, error) {
	now, err := retry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) (uint64, error) {
		now, err := r.clock.Now(ctx)
		if err != nil {
			r.logger.Warn("block time fetch failed", zap.Error(err))
		}
		return now, err
	})
	if err != nil {
		return 0, fmt.Errorf("block time: %w", err)
	}
	return now, nil
}

func (r *Runner) env(now uint64) model.Env {
	return model.Env{Time: now, Sender: r.cfg.Sender}
}

func (r *Runner) checkSlash(ctx context.Context, now uint64) error {
	resp, err := r.hub.CheckSlash(ctx, r.env(now))
	if errors.Is(err, hub.ErrUnbondingTooClose) {
		r.logger.Info("slashing check postponed", zap.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("check slash: %w", err)
	}
	if n, _ := resp.Attribute("slashed"); n != "0" {
		r.logger.Warn("slashing written into ledger", zap.String("validators", n))
	}
	return nil
}

func (r *Runner) reinvestIfDue(ctx context.Context, now uint64) (bool, error) {
	cfg, err := r.hub.QueryConfig(ctx)
	if err != nil {
		return false, err
	}
	if now < cfg.NextEpoch {
		r.logger.Debug("epoch not due", zap.Uint64("now", now), zap.Uint64("next_epoch", cfg.NextEpoch))
		return false, nil
	}
	wf, err := r.hub.QueryWorkflow(ctx)
	if err != nil {
		return false, err
	}
	if wf.Pending() {
		r.logger.Warn("reinvest still waiting for withdrawals", zap.String("cycle_id", wf.CycleID), zap.Uint64("started_at", wf.StartedAt))
		return false, nil
	}

	resp, err := r.hub.Reinvest(ctx, r.env(now))
	if err != nil {
		return false, fmt.Errorf("reinvest: %w", err)
	}
	r.logger.Info("reinvest started", zap.Int("messages", len(resp.Messages)))
	if err := r.relay(ctx, now, resp); err != nil {
		return false, err
	}
	return true, nil
}

// relay dispatches resp and feeds every reply back to the hub until no
// instruction is left.
func (r *Runner) relay(ctx context.Context, now uint64, resp model.Response) error {
	if len(resp.Messages) == 0 {
		return nil
	}
	// not retried: a partially executed batch must not run twice
	replies, err := r.dispatcher.Dispatch(ctx, resp.Messages)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	for _, reply := range replies {
		next, err := r.hub.Reply(ctx, r.env(now), reply)
		if err != nil {
			return fmt.Errorf("reply %d: %w", reply.ID, err)
		}
		if err := r.relay(ctx, now, next); err != nil {
			return err
		}
	}
	return nil
}

// observe publishes the exchange rate. The APR is measured between
// consecutive reinvests, the only points where the rate moves.
func (r *Runner) observe(ctx context.Context, now uint64, reinvested bool) (sdkmath.LegacyDec, bool) {
	rate, err := r.hub.QueryExchangeRate(ctx, now)
	if err != nil {
		r.logger.Warn("exchange rate unavailable", zap.Error(err))
		return sdkmath.LegacyDec{}, false
	}
	r.observer.ObserveExchangeRate(rate)
	if !reinvested {
		return rate, true
	}

	cur := rateSample{Rate: rate, At: now}
	if apr, ok := computeAPR(r.lastRate, cur); ok {
		f, _ := apr.Float64()
		r.observer.ObserveAPR(f)
		r.logger.Debug("apr estimate", zap.String("apr", apr.String()))
	}
	r.lastRate = cur
	return rate, true
}
