// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/swipegov/sxpgov/api"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/genesis"
	"github.com/swipegov/sxpgov/lvldb"
	"github.com/swipegov/sxpgov/node"
	"github.com/swipegov/sxpgov/sxpclient"
	"github.com/swipegov/sxpgov/test/testchain"
)

// newContext parses args against the flags of the named command.
func newContext(t *testing.T, command string, args ...string) *cli.Context {
	app := newApp()
	cmd := app.Command(command)
	require.NotNil(t, cmd)

	set := flag.NewFlagSet(command, flag.ContinueOnError)
	for _, f := range cmd.Flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func writeConfig(t *testing.T, name string, cfg *genesis.Config) string {
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.Equal(t, 128, normalizeCacheSize(0))
	assert.Equal(t, 128, normalizeCacheSize(64))
	assert.LessOrEqual(t, normalizeCacheSize(1<<30), 1<<30)
}

func TestSelectGenesis(t *testing.T) {
	gene, err := selectGenesis(newContext(t, "solo"))
	require.NoError(t, err)
	assert.Equal(t, "devnet", gene.Name())

	cfg := genesis.DevConfig()
	cfg.Staking.Version = 2
	path := writeConfig(t, "testnet", cfg)

	gene, err = selectGenesis(newContext(t, "solo", "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "testnet", gene.Name())
	assert.Equal(t, uint64(2), gene.Config().Staking.Version)

	_, err = selectGenesis(newContext(t, "solo", "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)

	cfg.Token.Symbol = ""
	_, err = selectGenesis(newContext(t, "solo", "--config", writeConfig(t, "broken", cfg)))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SXPGOV_API_ADDR", "localhost:9000")
	t.Setenv("SXPGOV_BLOCK_INTERVAL", "3")
	t.Setenv("SXPGOV_VERBOSITY", "5")

	ctx := newContext(t, "solo", "--verbosity", "1")
	require.NoError(t, applyEnv(ctx))

	assert.Equal(t, "localhost:9000", ctx.String(apiAddrFlag.Name))
	assert.Equal(t, uint64(3), ctx.Uint64(blockIntervalFlag.Name))
	// the command line wins
	assert.Equal(t, 1, ctx.Int(verbosityFlag.Name))

	// flags the command does not have are ignored
	inspect := newContext(t, "inspect")
	assert.True(t, hasFlag(ctx, apiAddrFlag.Name))
	assert.False(t, hasFlag(inspect, apiAddrFlag.Name))
	require.NoError(t, applyEnv(inspect))
	assert.False(t, inspect.IsSet(apiAddrFlag.Name))

	t.Setenv("SXPGOV_BLOCK_INTERVAL", "soon")
	assert.Error(t, applyEnv(newContext(t, "solo")))
}

func TestNodeOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want node.Options
	}{
		{
			name: "defaults",
			want: node.Options{
				BlockInterval:      10 * time.Second,
				ClockCheckInterval: time.Minute,
				NTPServer:          "pool.ntp.org",
				APITimeout:         10 * time.Second,
			},
		},
		{
			name: "custom interval without clock check",
			args: []string{"--block-interval", "2", "--ntp-server", "", "--api-timeout", "0"},
			want: node.Options{BlockInterval: 2 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nodeOptions(newContext(t, "solo", tt.args...), 10))
		})
	}
}

func TestInstanceDir(t *testing.T) {
	dataDir := t.TempDir()
	ctx := newContext(t, "solo", "--data-dir", dataDir)

	dir, err := makeInstanceDir(ctx, genesis.NewDevnet())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "devnet"), dir)
	assert.DirExists(t, dir)

	mainDB, err := openMainDB(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, mainDB.Close())

	logDB, err := openLogDB(dir)
	require.NoError(t, err)
	require.NoError(t, logDB.Close())

	assert.FileExists(t, filepath.Join(dir, "logs.db"))

	_, err = makeInstanceDir(newContext(t, "solo", "--data-dir", ""), genesis.NewDevnet())
	assert.Error(t, err)
}

func TestPrintInspection(t *testing.T) {
	var buf bytes.Buffer
	gene := genesis.NewDevnet()
	require.NoError(t, printInspection(&buf, gene.Name(), gene.Config()))

	out := buf.String()
	assert.Contains(t, out, "Network [ devnet ]")
	for _, d := range builtin.Deployments() {
		assert.Contains(t, out, d.Address.String())
	}
	assert.Contains(t, out, "symbol: SXP")
	assert.Contains(t, out, builtin.StakingProxy.Name)
}

func TestPrintStartupMessage(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	gene := genesis.NewDevnet()
	rt, err := node.OpenRuntime(db, gene, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printStartupMessage(&buf, gene, rt, "", "http://localhost:8669/", "", "http://localhost:2113/admin", true)

	out := buf.String()
	assert.Contains(t, out, "Network      [ devnet ]")
	assert.Contains(t, out, "Best block   [ #0 @2025-01-01T00:00:00Z ]")
	assert.Contains(t, out, "Data dir     [ memory ]")
	assert.Contains(t, out, "Metrics      [ disabled ]")
	assert.Contains(t, out, "Admin        [ http://localhost:2113/admin ]")
	assert.Contains(t, out, genesis.DevAccounts()[9].Address.String())
}

func TestPrintStatus(t *testing.T) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	defer chain.Close()

	ts := httptest.NewServer(api.New(chain.Runtime(), nil, api.Options{}))
	defer ts.Close()

	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, sxpclient.New(ts.URL)))

	out := buf.String()
	assert.Contains(t, out, "Best block   [ #0 @2025-01-01T00:00:00Z ]")
	assert.Contains(t, out, "Total staked [ 0 ]")
	assert.Contains(t, out, "Proposals    [ 0 ]")
	assert.Contains(t, out, "delay 48h0m0s")
	assert.Contains(t, out, builtin.GovernanceProxy.Address.String())

	ts.Close()
	assert.Error(t, printStatus(&buf, sxpclient.New(ts.URL)))
}
