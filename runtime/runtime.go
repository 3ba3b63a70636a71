// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes transactions against native contracts. All calls are
// serialized; every call runs inside a state checkpoint and is rolled back
// together with its events when it fails.
package runtime

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/log"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
	"github.com/swipegov/sxpgov/xenv"
)

const maxCallDepth = 64

var logger = log.WithContext("pkg", "runtime")

// Options configures block production.
type Options struct {
	// Interval is the number of seconds between two blocks.
	Interval uint64
	// GenesisTime is the timestamp of block 0, used when state holds no head yet.
	GenesisTime uint64
}

// Runtime is to support transaction execution.
type Runtime struct {
	mu        sync.Mutex
	state     *state.State
	contracts map[string]*xenv.Contract
	head      xenv.BlockContext
	best      *xenv.BlockContext
	interval  uint64
	receipts  []*tx.Receipt
	events    []*tx.Event
	listeners []func(*Block) error
}

// New create a Runtime over st, able to run the given contracts.
func New(st *state.State, contracts []*xenv.Contract, opts Options) (*Runtime, error) {
	rt := &Runtime{
		state:     st,
		contracts: make(map[string]*xenv.Contract, len(contracts)),
		interval:  opts.Interval,
	}
	for _, c := range contracts {
		if _, dup := rt.contracts[c.Code()]; dup {
			return nil, errors.Errorf("duplicated contract code %q", c.Code())
		}
		rt.contracts[c.Code()] = c
	}

	head, err := loadHead(st)
	if err != nil {
		return nil, err
	}
	if head.Number == 0 && head.Time == 0 {
		head.Time = opts.GenesisTime
	}
	rt.head = head
	if head.Number > 0 {
		rt.best = &xenv.BlockContext{Number: head.Number - 1, Time: head.Time - min(head.Time, opts.Interval)}
	}
	return rt, nil
}

// Head returns the context of the block being built.
func (rt *Runtime) Head() xenv.BlockContext {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.head
}

// Best returns the context of the last committed block, and false before the
// genesis is mined.
func (rt *Runtime) Best() (xenv.BlockContext, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.best == nil {
		return xenv.BlockContext{}, false
	}
	return *rt.best, true
}

// OnBlock registers fn to be called with every committed block.
func (rt *Runtime) OnBlock(fn func(*Block) error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.listeners = append(rt.listeners, fn)
}

// View runs fn with exclusive read access to the state.
func (rt *Runtime) View(fn func(st *state.State, head xenv.BlockContext) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return fn(rt.state, rt.head)
}

// Apply runs fn against the state of the block being built, as constructors
// do. Changes are discarded when fn fails.
func (rt *Runtime) Apply(fn func(st *state.State) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	checkpoint := rt.state.NewCheckpoint()
	if err := fn(rt.state); err != nil {
		rt.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// Deploy binds the contract registered under code to addr.
func (rt *Runtime) Deploy(addr sxp.Address, code string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, ok := rt.contracts[code]; !ok {
		return errors.Errorf("unknown contract code %q", code)
	}
	rt.state.SetCode(addr, []byte(code))
	return nil
}

// ContractAt returns the contract bound to addr, nil if none.
func (rt *Runtime) ContractAt(addr sxp.Address) (*xenv.Contract, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.contractAt(addr)
}

func (rt *Runtime) contractAt(addr sxp.Address) (*xenv.Contract, error) {
	code, err := rt.state.GetCode(addr)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, nil
	}
	c, ok := rt.contracts[string(code)]
	if !ok {
		return nil, errors.Errorf("unknown contract code %q at %v", code, addr)
	}
	return c, nil
}

// Execute runs trx in the current block and records its receipt.
// A reverted transaction still yields a receipt; the returned error is non-nil
// only when the failure is not a revert, e.g. a storage failure.
func (rt *Runtime) Execute(trx *tx.Transaction) (*tx.Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	index := len(rt.receipts)
	var idx [16]byte
	binary.BigEndian.PutUint64(idx[:8], rt.head.Number)
	binary.BigEndian.PutUint64(idx[8:], uint64(index))
	txID := trx.ID()

	receipt := &tx.Receipt{
		TxID:        sxp.Keccak256(txID[:], idx[:]),
		Origin:      trx.Origin(),
		To:          trx.To(),
		BlockNumber: rt.head.Number,
		BlockTime:   rt.head.Time,
		Index:       index,
	}

	rt.events = rt.events[:0]
	output, err := rt.call(trx.Origin(), trx.To(), trx.Value(), trx.Data(), 0)
	if err != nil {
		receipt.Reverted = true
		receipt.RevertReason = err.Error()
		kind, isRevert := reverts.KindOf(err)
		if isRevert {
			receipt.RevertKind = kind.String()
		}
		metricTxCount().AddWithLabel(1, map[string]string{"result": "reverted"})
		metricRevertCount().AddWithLabel(1, map[string]string{"kind": kind.String()})
		logger.Debug("transaction reverted", "to", trx.To(), "origin", trx.Origin(), "err", err)
		if !isRevert {
			rt.receipts = append(rt.receipts, receipt)
			return receipt, err
		}
	} else {
		receipt.Output = output
		receipt.Events = append([]*tx.Event(nil), rt.events...)
		metricTxCount().AddWithLabel(1, map[string]string{"result": "ok"})
	}
	rt.receipts = append(rt.receipts, receipt)
	return receipt, nil
}

// Call runs trx against the current state and discards all of its effects.
func (rt *Runtime) Call(trx *tx.Transaction) ([]byte, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	checkpoint := rt.state.NewCheckpoint()
	mark := len(rt.events)
	defer func() {
		rt.state.RevertTo(checkpoint)
		rt.events = rt.events[:mark]
	}()
	return rt.call(trx.Origin(), trx.To(), trx.Value(), trx.Data(), 0)
}

// CallMethod is a convenience for read-only calls of a method declared on the contract at to.
func (rt *Runtime) CallMethod(caller, to sxp.Address, method *abi.Method, args ...any) ([]any, error) {
	input, err := method.EncodeInput(args...)
	if err != nil {
		return nil, err
	}
	output, err := rt.Call(tx.New(caller, to, input))
	if err != nil {
		return nil, err
	}
	return method.DecodeOutputValues(output)
}

func (rt *Runtime) call(caller, to sxp.Address, value *big.Int, input []byte, depth int) ([]byte, error) {
	if depth > maxCallDepth {
		return nil, reverts.NewInvariant("call depth exceeded")
	}

	checkpoint := rt.state.NewCheckpoint()
	mark := len(rt.events)

	output, err := rt.invoke(caller, to, value, input, depth)
	if err != nil {
		rt.state.RevertTo(checkpoint)
		rt.events = rt.events[:mark]
		return nil, err
	}
	return output, nil
}

func (rt *Runtime) invoke(caller, to sxp.Address, value *big.Int, input []byte, depth int) ([]byte, error) {
	if err := rt.transfer(caller, to, value); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return nil, nil
	}

	contract, err := rt.contractAt(to)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, reverts.NewValidation("no contract at %v", to)
	}
	return rt.run(contract, to, caller, value, input, depth)
}

func (rt *Runtime) transfer(from, to sxp.Address, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return nil
	}
	if value.Sign() < 0 {
		return reverts.NewValidation("negative value")
	}

	balance, err := rt.state.GetBalance(from)
	if err != nil {
		return err
	}
	if balance.Cmp(value) < 0 {
		return reverts.NewInvariant("insufficient balance")
	}
	rt.state.SetBalance(from, balance.Sub(balance, value))

	balance, err = rt.state.GetBalance(to)
	if err != nil {
		return err
	}
	rt.state.SetBalance(to, balance.Add(balance, value))
	return nil
}

// run dispatches input to a method of contract executing with the storage of storage.
// Proxies forward methods they do not declare to their implementation.
func (rt *Runtime) run(contract *xenv.Contract, storage, caller sxp.Address, value *big.Int, input []byte, depth int) ([]byte, error) {
	id, err := abi.ExtractMethodID(input)
	if err != nil {
		return nil, reverts.NewValidation("%v", err)
	}

	method, ok := contract.Method(id)
	if !ok && contract.Resolver() != nil {
		impl, err := contract.Resolver()(rt.state, storage)
		if err != nil {
			return nil, err
		}
		if impl.IsZero() {
			return nil, reverts.NewState("implementation not set")
		}
		implContract, err := rt.contractAt(impl)
		if err != nil {
			return nil, err
		}
		if implContract == nil {
			return nil, reverts.NewValidation("no contract at implementation %v", impl)
		}
		method, ok = implContract.Method(id)
	}
	if !ok {
		return nil, reverts.NewValidation("unknown method %x", id[:])
	}

	env := xenv.New(method.ABI, rt.state, rt.head, caller, storage, value, input, &invoker{rt, depth})
	outputs, err := method.Run(env)
	if err != nil {
		return nil, err
	}
	data, err := method.ABI.EncodeOutput(outputs...)
	if err != nil {
		return nil, errors.WithMessagef(err, "encode output of %v", method.ABI.Name())
	}
	return data, nil
}

type invoker struct {
	rt    *Runtime
	depth int
}

func (i *invoker) Call(caller, to sxp.Address, value *big.Int, input []byte) ([]byte, error) {
	return i.rt.call(caller, to, value, input, i.depth+1)
}

func (i *invoker) Delegate(caller, storage, code sxp.Address, input []byte) ([]byte, error) {
	rt := i.rt
	if i.depth+1 > maxCallDepth {
		return nil, reverts.NewInvariant("call depth exceeded")
	}
	contract, err := rt.contractAt(code)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, reverts.NewValidation("no contract at %v", code)
	}

	checkpoint := rt.state.NewCheckpoint()
	mark := len(rt.events)
	output, err := rt.run(contract, storage, caller, new(big.Int), input, i.depth+1)
	if err != nil {
		rt.state.RevertTo(checkpoint)
		rt.events = rt.events[:mark]
		return nil, err
	}
	return output, nil
}

func (i *invoker) ContractAt(addr sxp.Address) (*xenv.Contract, error) {
	return i.rt.contractAt(addr)
}

func (i *invoker) Emit(ev *tx.Event) {
	i.rt.events = append(i.rt.events, ev)
}
