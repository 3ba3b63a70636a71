// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
)

const envPrefix = "SXPGOV"

// envOverrides are read from SXPGOV_* variables. A variable applies only
// when the matching flag is not given on the command line.
type envOverrides struct {
	Config        string  `envconfig:"CONFIG"`
	DataDir       string  `envconfig:"DATA_DIR"`
	APIAddr       string  `envconfig:"API_ADDR"`
	APICors       string  `envconfig:"API_CORS"`
	MetricsAddr   string  `envconfig:"METRICS_ADDR"`
	Verbosity     *int    `envconfig:"VERBOSITY"`
	BlockInterval *uint64 `envconfig:"BLOCK_INTERVAL"`
}

func loadEnvOverrides() (*envOverrides, error) {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return &env, nil
}

// apply sets every flag the environment overrides and the command line left unset.
func (e *envOverrides) apply(ctx *cli.Context) error {
	values := map[string]string{
		configFlag.Name:      e.Config,
		dataDirFlag.Name:     e.DataDir,
		apiAddrFlag.Name:     e.APIAddr,
		apiCorsFlag.Name:     e.APICors,
		metricsAddrFlag.Name: e.MetricsAddr,
	}
	if e.Verbosity != nil {
		values[verbosityFlag.Name] = strconv.Itoa(*e.Verbosity)
	}
	if e.BlockInterval != nil {
		values[blockIntervalFlag.Name] = strconv.FormatUint(*e.BlockInterval, 10)
	}
	for name, value := range values {
		if value == "" || ctx.IsSet(name) || !hasFlag(ctx, name) {
			continue
		}
		if err := ctx.Set(name, value); err != nil {
			return errors.WithMessagef(err, "%s_%s", envPrefix, name)
		}
	}
	return nil
}

// hasFlag looks name up in the parsed flag set of ctx.
func hasFlag(ctx *cli.Context, name string) bool {
	return ctx.Generic(name) != nil
}
