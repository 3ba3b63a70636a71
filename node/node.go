// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node runs a single writer chain: it mines the block being built on a
// ticker and serves the API until its context is canceled.
package node

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/swipegov/sxpgov/health"
	"github.com/swipegov/sxpgov/log"
	"github.com/swipegov/sxpgov/runtime"
)

var logger = log.WithContext("pkg", "node")

type Options struct {
	// BlockInterval is the wall clock time between two blocks.
	BlockInterval time.Duration
	// ClockCheckInterval is the period of the clock drift check, zero disables it.
	ClockCheckInterval time.Duration
	// NTPServer is queried by the clock drift check.
	NTPServer string
	// APITimeout bounds the time spent writing one API response, zero for none.
	APITimeout time.Duration
	// Health is told about mined blocks and the mining state when set.
	Health *health.Health
}

type Node struct {
	rt          *runtime.Runtime
	api         http.Handler
	apiListener net.Listener
	opts        Options
	now         func() time.Time
}

// New returns a node mining on rt. The API is served on apiListener when both
// are given.
func New(rt *runtime.Runtime, api http.Handler, apiListener net.Listener, opts Options) *Node {
	if opts.Health != nil {
		rt.OnBlock(opts.Health.OnBlock)
	}
	return &Node{
		rt:          rt,
		api:         api,
		apiListener: apiListener,
		opts:        opts,
		now:         time.Now,
	}
}

// Run blocks until ctx is canceled or a service fails.
func (n *Node) Run(ctx context.Context) error {
	if n.opts.BlockInterval <= 0 {
		return errors.New("block interval must be positive")
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return n.mineLoop(ctx)
	})
	if n.api != nil && n.apiListener != nil {
		g.Go(func() error {
			return n.serveAPI(ctx)
		})
	}
	if n.opts.ClockCheckInterval > 0 {
		g.Go(func() error {
			n.clockLoop(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (n *Node) mineLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.opts.BlockInterval)
	defer ticker.Stop()

	if h := n.opts.Health; h != nil {
		h.MiningStatus(true)
		defer h.MiningStatus(false)
	}

	logger.Info("prepared to mine blocks", "interval", n.opts.BlockInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping block production")
			return nil
		case <-ticker.C:
			if err := n.mine(); err != nil {
				return err
			}
		}
	}
}

// mine commits the block being built, first catching its timestamp up with the
// wall clock.
func (n *Node) mine() error {
	now := uint64(n.now().Unix())
	if head := n.rt.Head(); now > head.Time {
		n.rt.AdvanceTime(now - head.Time)
	}
	blk, err := n.rt.Mine()
	if err != nil {
		return errors.WithMessage(err, "mine")
	}
	if len(blk.Receipts) > 0 {
		reverted := 0
		for _, r := range blk.Receipts {
			if r.Reverted {
				reverted++
			}
		}
		logger.Info("mined block", "number", blk.Number, "txs", len(blk.Receipts), "reverted", reverted)
	} else {
		logger.Debug("mined empty block", "number", blk.Number)
	}
	return nil
}

func (n *Node) serveAPI(ctx context.Context) error {
	srv := &http.Server{
		Handler:           n.api,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      n.opts.APITimeout,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api shutdown", "err", err)
		}
	}()

	logger.Info("api started", "addr", n.apiListener.Addr().String())
	err := srv.Serve(n.apiListener)
	<-done
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "serve api")
	}
	return nil
}
