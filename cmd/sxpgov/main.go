// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/swipegov/sxpgov/admin"
	"github.com/swipegov/sxpgov/api"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/health"
	"github.com/swipegov/sxpgov/kv"
	"github.com/swipegov/sxpgov/log"
	"github.com/swipegov/sxpgov/logdb"
	"github.com/swipegov/sxpgov/lvldb"
	"github.com/swipegov/sxpgov/metrics"
	"github.com/swipegov/sxpgov/node"
	"github.com/swipegov/sxpgov/sxpclient"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "sxpgov"
	app.Usage = "Governance and staking chain for the SXP token"
	app.Copyright = "2025 The sxpgov developers"
	app.Commands = []cli.Command{
		{
			Name:  "solo",
			Usage: "run a single node mining blocks on its own",
			Flags: []cli.Flag{
				configFlag,
				dataDirFlag,
				persistFlag,
				cacheFlag,
				blockIntervalFlag,
				apiAddrFlag,
				apiCorsFlag,
				apiTimeoutFlag,
				apiLogsLimitFlag,
				enableAPILogsFlag,
				apiSlowQueriesThresholdFlag,
				apiLog5xxErrorsFlag,
				skipLogsFlag,
				pprofFlag,
				enableMetricsFlag,
				metricsAddrFlag,
				enableAdminFlag,
				adminAddrFlag,
				ntpServerFlag,
				verbosityFlag,
				jsonLogsFlag,
			},
			Before: applyEnv,
			Action: soloAction,
		},
		{
			Name:  "inspect",
			Usage: "print the genesis config and the contract deployments",
			Flags: []cli.Flag{
				configFlag,
			},
			Before: applyEnv,
			Action: inspectAction,
		},
		{
			Name:  "status",
			Usage: "print the chain head, staking and governance state of a running node",
			Flags: []cli.Flag{
				apiURLFlag,
			},
			Action: statusAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}

// applyEnv fills command flags from SXPGOV_* variables.
func applyEnv(ctx *cli.Context) error {
	env, err := loadEnvOverrides()
	if err != nil {
		return err
	}
	return env.apply(ctx)
}

func soloAction(ctx *cli.Context) error {
	logLevel := initLogger(ctx)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	var (
		mainDB  kv.Store
		logDB   *logdb.LogDB
		dataDir string
	)
	if ctx.Bool(persistFlag.Name) {
		if dataDir, err = makeInstanceDir(ctx, gene); err != nil {
			return err
		}
		db, err := openMainDB(ctx, dataDir)
		if err != nil {
			return err
		}
		defer func() { log.Info("closing main database..."); db.Close() }()
		mainDB = db

		if !ctx.Bool(skipLogsFlag.Name) {
			if logDB, err = openLogDB(dataDir); err != nil {
				return err
			}
			defer func() { log.Info("closing log database..."); logDB.Close() }()
		}
	} else {
		db, err := lvldb.NewMem()
		if err != nil {
			return errors.WithMessage(err, "open main database")
		}
		defer db.Close()
		mainDB = db

		if !ctx.Bool(skipLogsFlag.Name) {
			if logDB, err = logdb.NewMem(); err != nil {
				return errors.WithMessage(err, "open log database")
			}
			defer logDB.Close()
		}
	}

	rt, err := node.OpenRuntime(mainDB, gene, logDB)
	if err != nil {
		return err
	}

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeMetrics, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer closeMetrics()
		metricsURL = url
	}

	enableReqLogger := &atomic.Bool{}
	enableReqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler := api.New(rt, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		SkipLogs:             ctx.Bool(skipLogsFlag.Name),
		EnableReqLogger:      enableReqLogger,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
	})
	apiListener, err := listen(ctx.String(apiAddrFlag.Name), "API")
	if err != nil {
		return err
	}

	opts := nodeOptions(ctx, gene.RuntimeOptions().Interval)
	opts.Health = health.New(opts.BlockInterval)

	adminURL := ""
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeAdmin, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, enableReqLogger, opts.Health)
		if err != nil {
			return err
		}
		defer closeAdmin()
		adminURL = url
	}

	n := node.New(rt, handler, apiListener, opts)

	printStartupMessage(
		os.Stdout,
		gene,
		rt,
		dataDir,
		"http://"+apiListener.Addr().String()+"/",
		metricsURL,
		adminURL,
		ctx.String(configFlag.Name) == "",
	)
	return n.Run(handleExitSignal())
}

// nodeOptions builds the node options, genesisInterval being the block
// interval in seconds used when the flag is not set.
func nodeOptions(ctx *cli.Context, genesisInterval uint64) node.Options {
	interval := ctx.Uint64(blockIntervalFlag.Name)
	if interval == 0 {
		interval = genesisInterval
	}
	opts := node.Options{
		BlockInterval: time.Duration(interval) * time.Second,
		NTPServer:     ctx.String(ntpServerFlag.Name),
		APITimeout:    time.Duration(ctx.Uint64(apiTimeoutFlag.Name)) * time.Millisecond,
	}
	if opts.NTPServer != "" {
		opts.ClockCheckInterval = time.Minute
	}
	return opts
}

func inspectAction(ctx *cli.Context) error {
	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	return printInspection(ctx.App.Writer, gene.Name(), gene.Config())
}

func printInspection(w io.Writer, name string, cfg any) error {
	fmt.Fprintf(w, "Network [ %v ]\n\nDeployments\n", name)
	for _, d := range builtin.Deployments() {
		kind := "logic"
		if d.IsProxy() {
			kind = "proxy"
		}
		fmt.Fprintf(w, "  %-16s %v %s\n", d.Name, d.Address, kind)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode genesis config")
	}
	fmt.Fprintf(w, "\nGenesis config\n%s", data)
	return nil
}

func statusAction(ctx *cli.Context) error {
	return printStatus(ctx.App.Writer, sxpclient.New(ctx.String(apiURLFlag.Name)))
}

func printStatus(w io.Writer, c *sxpclient.Client) error {
	best, err := c.BestBlock()
	if err != nil {
		return err
	}
	staking, err := c.StakingSummary()
	if err != nil {
		return err
	}
	overview, err := c.Proposals()
	if err != nil {
		return err
	}
	timelock, err := c.Timelock()
	if err != nil {
		return err
	}
	cards, err := c.Cards()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, `Node         [ %v ]
Best block   [ #%v @%v ]
Total staked [ %v ]
Proposals    [ %v ]
Quorum       [ %v ]
Timelock     [ admin %v delay %v ]
Cards        [ %v ]
`,
		c.URL(),
		best.Number, time.Unix(int64(best.Timestamp), 0).UTC().Format(time.RFC3339),
		(*big.Int)(staking.TotalStaked),
		overview.ProposalCount,
		(*big.Int)(overview.QuorumVotes),
		timelock.Admin, time.Duration(timelock.Delay)*time.Second,
		len(cards),
	)
	return nil
}
