// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/docharvest/internal/secrets"
	"github.com/pdiddy/docharvest/pkg/types"
)

// harvestConfig assembles the batch settings from flags, environment and
// config file (in that order of precedence), with the auth token falling
// back to the secrets directory.
func harvestConfig(v *viper.Viper, s *secrets.Store) (types.HarvestConfig, error) {
	color, err := parseColor(v.GetString("harvest.annotate.color"))
	if err != nil {
		return types.HarvestConfig{}, err
	}
	cfg := types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:      v.GetDuration("harvest.timeout"),
			UserAgent:    v.GetString("harvest.user_agent"),
			AuthToken:    s.Or(secrets.FetchAuthToken, v.GetString("harvest.auth_token")),
			MaxBodyBytes: v.GetInt64("harvest.max_body_bytes"),
		},
		Annotate: types.AnnotateConfig{
			Prefix:  v.GetString("harvest.annotate.prefix"),
			Color:   color,
			Opacity: v.GetFloat64("harvest.annotate.opacity"),
		},
		OutputDir:        v.GetString("harvest.output_dir"),
		TempDir:          v.GetString("harvest.temp_dir"),
		Workers:          v.GetInt("harvest.workers"),
		FetchConcurrency: v.GetInt("harvest.fetch_concurrency"),
	}
	return cfg.WithDefaults(), nil
}

func ledgerConfig(v *viper.Viper) types.LedgerConfig {
	return types.LedgerConfig{
		Path:       v.GetString("ledger.path"),
		MaxResults: v.GetInt("ledger.max_results"),
	}
}

// parseColor reads an RGB hex colour such as "#ffff00" or "ff0". An empty
// string yields the zero colour, which AnnotateConfig treats as yellow.
func parseColor(s string) ([3]float64, error) {
	var rgb [3]float64
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 0:
		return rgb, nil
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return rgb, fmt.Errorf("invalid colour %q: want #rrggbb or #rgb", s)
	}
	for i := range rgb {
		n, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return rgb, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		rgb[i] = float64(n) / 255
	}
	return rgb, nil
}
