package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/pflag"

	"lsdHub/internal/model"
)

// LoadGenesis reads the pool parameters used by the init command.
func LoadGenesis(cfgFile string, flags *pflag.FlagSet) (model.Genesis, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return model.Genesis{}, err
	}
	v.SetDefault("commission", "0")
	v.SetDefault("epoch-period", "23h")
	v.SetDefault("unbond-period", "28d")
	v.SetDefault("max-concurrent-unbondings", 7)
	v.SetDefault("liquidity-discount", "0")
	v.SetDefault("tombstone-threshold", "0.0001")
	v.SetDefault("slashing-safety-margin", "1h")

	g := model.Genesis{
		Owner:                   v.GetString("owner"),
		TokenContract:           v.GetString("token-contract"),
		Treasury:                v.GetString("treasury"),
		BondDenom:               v.GetString("bond-denom"),
		MaxConcurrentUnbondings: v.GetUint64("max-concurrent-unbondings"),
	}

	decimals := []struct {
		key string
		dst *sdkmath.LegacyDec
	}{
		{"commission", &g.Commission},
		{"liquidity-discount", &g.LiquidityDiscount},
		{"tombstone-threshold", &g.TombstoneThreshold},
	}
	for _, d := range decimals {
		if *d.dst, err = ParseDec(v.GetString(d.key)); err != nil {
			return model.Genesis{}, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	periods := []struct {
		key string
		dst *uint64
	}{
		{"epoch-period", &g.EpochPeriod},
		{"unbond-period", &g.UnbondPeriod},
		{"slashing-safety-margin", &g.SlashingSafetyMargin},
	}
	for _, p := range periods {
		if *p.dst, err = ParseSeconds(v.GetString(p.key)); err != nil {
			return model.Genesis{}, fmt.Errorf("%s: %w", p.key, err)
		}
	}

	if g.Validators, err = ParseValidators(listValue(v, "validators")); err != nil {
		return model.Genesis{}, err
	}
	return g, nil
}

// ParseValidators parses "validator:weight" items.
func ParseValidators(items []string) ([]model.ValidatorWeight, error) {
	out := make([]model.ValidatorWeight, 0, len(items))
	for _, item := range items {
		idx := strings.LastIndex(item, ":")
		if idx <= 0 || idx == len(item)-1 {
			return nil, fmt.Errorf("invalid validator %q, expected validator:weight", item)
		}
		weight, err := ParseDec(item[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("validator %s: %w", item[:idx], err)
		}
		out = append(out, model.ValidatorWeight{Validator: strings.TrimSpace(item[:idx]), Weight: weight})
	}
	return out, nil
}

// ParseDec parses a decimal, accepting a trailing % as hundredths.
func ParseDec(input string) (sdkmath.LegacyDec, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return sdkmath.LegacyZeroDec(), nil
	}
	if strings.HasSuffix(input, "%") {
		d, err := sdkmath.LegacyNewDecFromStr(strings.TrimSuffix(input, "%"))
		if err != nil {
			return sdkmath.LegacyDec{}, err
		}
		return d.QuoInt64(100), nil
	}
	return sdkmath.LegacyNewDecFromStr(input)
}

// ParseSeconds parses a period given as seconds, a Go duration or whole days ("28d").
func ParseSeconds(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}
	if days := strings.TrimSuffix(input, "d"); days != input && isNumeric(days) {
		n, err := strconv.ParseUint(days, 10, 64)
		if err != nil {
			return 0, err
		}
		return n * 24 * 60 * 60, nil
	}

	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative period %s", input)
	}
	return uint64(d / time.Second), nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
