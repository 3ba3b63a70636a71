// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health tracks whether the node keeps producing blocks.
package health

import (
	"sync"
	"time"

	"github.com/swipegov/sxpgov/runtime"
)

// staleFactor is the number of missed intervals after which the node is unhealthy.
const staleFactor = 3

type BlockProduction struct {
	BestBlock         *uint64    `json:"bestBlock"`
	BestBlockTime     *uint64    `json:"bestBlockTimestamp"`
	BestBlockMinedAt  *time.Time `json:"bestBlockMinedAt"`
	BlockIntervalSecs uint64     `json:"blockInterval"`
}

type Status struct {
	Healthy         bool             `json:"healthy"`
	BlockProduction *BlockProduction `json:"blockProduction"`
	Mining          bool             `json:"mining"`
}

type Health struct {
	lock     sync.RWMutex
	interval time.Duration
	now      func() time.Time
	minedAt  time.Time
	best     *runtime.Block
	mining   bool
}

// New returns a tracker expecting one block per interval.
func New(interval time.Duration) *Health {
	return &Health{
		interval: interval,
		now:      time.Now,
	}
}

// OnBlock records a committed block. It fits runtime.Runtime.OnBlock.
func (h *Health) OnBlock(blk *runtime.Block) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.minedAt = h.now()
	h.best = &runtime.Block{Number: blk.Number, Time: blk.Time}
	return nil
}

// MiningStatus reports whether the block producer runs.
func (h *Health) MiningStatus(mining bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.mining = mining
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	production := &BlockProduction{
		BlockIntervalSecs: uint64(h.interval / time.Second),
	}
	healthy := h.mining
	if h.best == nil {
		healthy = false
	} else {
		number, timestamp, minedAt := h.best.Number, h.best.Time, h.minedAt
		production.BestBlock = &number
		production.BestBlockTime = &timestamp
		production.BestBlockMinedAt = &minedAt
		if h.now().Sub(h.minedAt) > staleFactor*h.interval {
			healthy = false
		}
	}

	return &Status{
		Healthy:         healthy,
		BlockProduction: production,
		Mining:          h.mining,
	}, nil
}
