// Package metrics exports hub and keeper activity to Prometheus.
package metrics

import (
	"math/big"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lsdHub/internal/ledger"
)

const namespace = "lsdhub"

// Client owns a private registry so several hubs can live in one process.
type Client struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	slashes      *prometheus.CounterVec
	supply       *prometheus.GaugeVec
	exchangeRate prometheus.Gauge
	apr          prometheus.Gauge
	keeperRuns   *prometheus.CounterVec
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Hub commands executed, by command and result",
		}, []string{"command", "result"}),
		slashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slashes_total",
			Help:      "Slashing events written into the ledger, by validator",
		}, []string{"validator"}),
		supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "supply",
			Help:      "Supply ledger totals in base units",
		}, []string{"field"}),
		exchangeRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exchange_rate",
			Help:      "Native tokens redeemable per share",
		}),
		apr: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "keeper",
			Name:      "apr",
			Help:      "Annualized growth of the exchange rate over the keeper history",
		}),
		keeperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keeper",
			Name:      "runs_total",
			Help:      "Keeper iterations, by result",
		}, []string{"result"}),
	}
	c.registry.MustRegister(c.commands, c.slashes, c.supply, c.exchangeRate, c.apr, c.keeperRuns)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Client) CommandDone(command string, err error) {
	c.commands.WithLabelValues(command, result(err)).Inc()
}

func (c *Client) SupplyChanged(supply ledger.Supply) {
	c.supply.WithLabelValues("issued").Set(intToFloat(supply.Issued))
	c.supply.WithLabelValues("total_bonded").Set(intToFloat(supply.TotalBonded))
	c.supply.WithLabelValues("total_unbonding").Set(intToFloat(supply.TotalUnbonding))
	c.supply.WithLabelValues("claims").Set(intToFloat(supply.Claims))
}

func (c *Client) SlashDetected(validator string) {
	c.slashes.WithLabelValues(validator).Inc()
}

func (c *Client) ObserveExchangeRate(rate sdkmath.LegacyDec) {
	f, err := rate.Float64()
	if err != nil {
		c.logger.Debug("exchange rate out of float range", zap.String("rate", rate.String()), zap.Error(err))
		return
	}
	c.exchangeRate.Set(f)
}

func (c *Client) ObserveAPR(apr float64) {
	c.apr.Set(apr)
}

func (c *Client) KeeperRun(err error) {
	c.keeperRuns.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func intToFloat(v sdkmath.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}
