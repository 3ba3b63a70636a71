// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
	"github.com/swipegov/sxpgov/xenv"
)

// SystemAddress holds runtime bookkeeping such as the block head.
var SystemAddress = sxp.BytesToAddress([]byte("sxpgov.runtime"))

var (
	headNumberSlot = sxp.Keccak256([]byte("runtime.head.number"))
	headTimeSlot   = sxp.Keccak256([]byte("runtime.head.time"))
)

// Block is a committed block with the receipts of its transactions.
type Block struct {
	Number   uint64        `json:"number"`
	Time     uint64        `json:"timestamp"`
	Receipts []*tx.Receipt `json:"receipts"`
}

func loadHead(st *state.State) (xenv.BlockContext, error) {
	number, err := st.GetStorage(SystemAddress, headNumberSlot)
	if err != nil {
		return xenv.BlockContext{}, err
	}
	t, err := st.GetStorage(SystemAddress, headTimeSlot)
	if err != nil {
		return xenv.BlockContext{}, err
	}
	return xenv.BlockContext{
		Number: binary.BigEndian.Uint64(number[24:]),
		Time:   binary.BigEndian.Uint64(t[24:]),
	}, nil
}

func saveHead(st *state.State, head xenv.BlockContext) {
	var number, t sxp.Bytes32
	binary.BigEndian.PutUint64(number[24:], head.Number)
	binary.BigEndian.PutUint64(t[24:], head.Time)
	st.SetStorage(SystemAddress, headNumberSlot, number)
	st.SetStorage(SystemAddress, headTimeSlot, t)
}

// Mine seals the block being built: state changes are committed, listeners are
// notified and a new block is opened one interval later.
func (rt *Runtime) Mine() (*Block, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	block := &Block{
		Number:   rt.head.Number,
		Time:     rt.head.Time,
		Receipts: rt.receipts,
	}
	next := xenv.BlockContext{
		Number: rt.head.Number + 1,
		Time:   rt.head.Time + rt.interval,
	}

	saveHead(rt.state, next)
	if err := rt.state.Stage().Commit(); err != nil {
		return nil, errors.WithMessage(err, "commit block")
	}
	rt.head = next
	rt.best = &xenv.BlockContext{Number: block.Number, Time: block.Time}
	rt.receipts = nil

	for _, fn := range rt.listeners {
		if err := fn(block); err != nil {
			return block, errors.WithMessagef(err, "block %v listener", block.Number)
		}
	}

	metricBlockCount().Add(1)
	metricBestBlock().Set(int64(block.Number))
	logger.Debug("block committed", "number", block.Number, "time", block.Time, "txs", len(block.Receipts))
	return block, nil
}

// MineN mines n blocks.
func (rt *Runtime) MineN(n int) error {
	for range n {
		if _, err := rt.Mine(); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceTime moves the clock of the block being built forward.
func (rt *Runtime) AdvanceTime(seconds uint64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.head.Time += seconds
}
