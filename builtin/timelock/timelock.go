// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package timelock implements the delay between approving an operation and
// executing it. Operations are identified by the hash of their target, value,
// signature, data and eta.
package timelock

import (
	"math/big"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

const (
	// Code is the code tag of the timelock logic.
	Code = "timelock"
	// Layout is the storage layout family of the timelock.
	Layout = "timelock"
)

const (
	queueTransactionDecl   = "queueTransaction(address target, uint256 value, string signature, bytes data, uint256 eta) returns (bytes32)"
	cancelTransactionDecl  = "cancelTransaction(address target, uint256 value, string signature, bytes data, uint256 eta)"
	executeTransactionDecl = "executeTransaction(address target, uint256 value, string signature, bytes data, uint256 eta) returns (bytes)"
	delayDecl              = "delay() returns (uint256)"
)

// Methods governance drives the timelock with.
var (
	QueueTransactionMethod   = abi.MustParseMethod(queueTransactionDecl)
	CancelTransactionMethod  = abi.MustParseMethod(cancelTransactionDecl)
	ExecuteTransactionMethod = abi.MustParseMethod(executeTransactionDecl)
	DelayMethod              = abi.MustParseMethod(delayDecl)
)

var (
	adminSlot        = solidity.Slot("timelock.admin")
	pendingAdminSlot = solidity.Slot("timelock.pendingAdmin")
	delaySlot        = solidity.Slot("timelock.delay")
	queuedSlot       = solidity.Slot("timelock.queuedTransactions")

	newAdminEvent        = abi.MustParseEvent("NewAdmin(address newAdmin)")
	newPendingAdminEvent = abi.MustParseEvent("NewPendingAdmin(address newPendingAdmin)")
	newDelayEvent        = abi.MustParseEvent("NewDelay(uint256 newDelay)")
	queueEvent           = abi.MustParseEvent(
		"QueueTransaction(bytes32 txHash, address target, uint256 value, string signature, bytes data, uint256 eta)")
	cancelEvent = abi.MustParseEvent(
		"CancelTransaction(bytes32 txHash, address target, uint256 value, string signature, bytes data, uint256 eta)")
	executeEvent = abi.MustParseEvent(
		"ExecuteTransaction(bytes32 txHash, address target, uint256 value, string signature, bytes data, uint256 eta)")
)

// Contract is the timelock logic.
var Contract = newContract()

// Transaction is a delayed call.
type Transaction struct {
	Target    xenv.ABIAddress
	Value     *big.Int
	Signature string
	Data      []byte
	Eta       *big.Int
}

// Hash returns the key the transaction is queued under, keccak256 of the abi
// encoded fields.
func (t *Transaction) Hash() (sxp.Bytes32, error) {
	packed, err := abi.Pack(
		[]string{"address", "uint256", "string", "bytes", "uint256"},
		t.Target, t.Value, t.Signature, t.Data, t.Eta)
	if err != nil {
		return sxp.Bytes32{}, err
	}
	return sxp.Keccak256(packed), nil
}

// Calldata returns the input dispatched to the target: the selector of the
// signature followed by data, or data verbatim when the signature is empty.
func (t *Transaction) Calldata() []byte {
	if t.Signature == "" {
		return t.Data
	}
	id := abi.Selector(t.Signature)
	return append(id[:], t.Data...)
}

func (t *Transaction) log(env *xenv.Environment, ev *abi.Event, hash sxp.Bytes32) error {
	return env.Log(ev, hash, t.Target, t.Value, t.Signature, t.Data, t.Eta)
}

// Timelock is the timelock storage at an address.
type Timelock struct {
	ctx *solidity.Context
}

func New(addr sxp.Address, st *state.State) *Timelock {
	return &Timelock{solidity.NewContext(addr, st)}
}

func (tl *Timelock) queued(hash sxp.Bytes32) *solidity.Bool {
	return solidity.NewBool(tl.ctx, solidity.Derive(queuedSlot, hash.Bytes()))
}

// IsQueued reports whether the transaction hash is queued.
func (tl *Timelock) IsQueued(hash sxp.Bytes32) (bool, error) {
	return tl.queued(hash).Get()
}

func (tl *Timelock) admin() *solidity.Address        { return solidity.NewAddress(tl.ctx, adminSlot) }
func (tl *Timelock) pendingAdmin() *solidity.Address { return solidity.NewAddress(tl.ctx, pendingAdminSlot) }
func (tl *Timelock) delay() *solidity.Uint64         { return solidity.NewUint64(tl.ctx, delaySlot) }

// Admin returns the current admin.
func (tl *Timelock) Admin() (sxp.Address, error) { return tl.admin().Get() }

// PendingAdmin returns the admin candidate, zero when none is pending.
func (tl *Timelock) PendingAdmin() (sxp.Address, error) { return tl.pendingAdmin().Get() }

// Delay returns the minimum delay in seconds between queueing and executing.
func (tl *Timelock) Delay() (uint64, error) { return tl.delay().Get() }

func timelock(env *xenv.Environment) *Timelock {
	return New(env.Address(), env.State())
}

func (tl *Timelock) requireAdmin(env *xenv.Environment, orSelf bool) error {
	if orSelf && env.Caller() == env.Address() {
		return nil
	}
	admin, err := tl.admin().Get()
	if err != nil {
		return err
	}
	if admin.IsZero() || admin != env.Caller() {
		return reverts.NewAuthorization("caller is not the admin")
	}
	return nil
}

func checkDelay(delay *big.Int) error {
	if !delay.IsUint64() || delay.Uint64() < sxp.MinimumDelay || delay.Uint64() > sxp.MaximumDelay {
		return reverts.NewValidation("delay %v out of range [%d, %d]", delay, sxp.MinimumDelay, sxp.MaximumDelay)
	}
	return nil
}

func newContract() *xenv.Contract {
	c := xenv.NewContract(Code, Layout, 1)

	c.Register("initialize(address admin, uint256 delay)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Admin xenv.ABIAddress
			Delay *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		if err := proxy.Initialize(env, Layout); err != nil {
			return nil, err
		}
		if err := checkDelay(args.Delay); err != nil {
			return nil, err
		}
		tl := timelock(env)
		tl.admin().Set(xenv.Address(args.Admin))
		tl.delay().Set(args.Delay.Uint64())
		return nil, nil
	})

	c.Register("GRACE_PERIOD() returns (uint256)", constant(sxp.GracePeriod))
	c.Register("MINIMUM_DELAY() returns (uint256)", constant(sxp.MinimumDelay))
	c.Register("MAXIMUM_DELAY() returns (uint256)", constant(sxp.MaximumDelay))
	c.Register("admin() returns (address)", func(env *xenv.Environment) ([]any, error) {
		admin, err := timelock(env).admin().Get()
		return []any{admin}, err
	})
	c.Register("pendingAdmin() returns (address)", func(env *xenv.Environment) ([]any, error) {
		pending, err := timelock(env).pendingAdmin().Get()
		return []any{pending}, err
	})
	c.Register(delayDecl, func(env *xenv.Environment) ([]any, error) {
		delay, err := timelock(env).delay().Get()
		return []any{new(big.Int).SetUint64(delay)}, err
	})
	c.Register("queuedTransactions(bytes32 txHash) returns (bool)", func(env *xenv.Environment) ([]any, error) {
		var hash [32]byte
		if err := env.ParseArgs(&hash); err != nil {
			return nil, err
		}
		queued, err := timelock(env).IsQueued(hash)
		return []any{queued}, err
	})

	c.Register("setDelay(uint256 delay)", func(env *xenv.Environment) ([]any, error) {
		var delay *big.Int
		if err := env.ParseArgs(&delay); err != nil {
			return nil, err
		}
		tl := timelock(env)
		if err := tl.requireAdmin(env, true); err != nil {
			return nil, err
		}
		if err := checkDelay(delay); err != nil {
			return nil, err
		}
		tl.delay().Set(delay.Uint64())
		return nil, env.Log(newDelayEvent, delay)
	})
	c.Register("setPendingAdmin(address pendingAdmin)", func(env *xenv.Environment) ([]any, error) {
		var pending xenv.ABIAddress
		if err := env.ParseArgs(&pending); err != nil {
			return nil, err
		}
		tl := timelock(env)
		if err := tl.requireAdmin(env, true); err != nil {
			return nil, err
		}
		tl.pendingAdmin().Set(xenv.Address(pending))
		return nil, env.Log(newPendingAdminEvent, xenv.Address(pending))
	})
	c.Register("acceptAdmin()", func(env *xenv.Environment) ([]any, error) {
		tl := timelock(env)
		pending, err := tl.pendingAdmin().Get()
		if err != nil {
			return nil, err
		}
		if pending.IsZero() || pending != env.Caller() {
			return nil, reverts.NewAuthorization("caller is not the pending admin")
		}
		tl.admin().Set(pending)
		tl.pendingAdmin().Set(sxp.Address{})
		return nil, env.Log(newAdminEvent, pending)
	})

	c.Register(queueTransactionDecl, func(env *xenv.Environment) ([]any, error) {
		var t Transaction
		if err := env.ParseArgs(&t); err != nil {
			return nil, err
		}
		tl := timelock(env)
		if err := tl.requireAdmin(env, false); err != nil {
			return nil, err
		}
		delay, err := tl.delay().Get()
		if err != nil {
			return nil, err
		}
		earliest := new(big.Int).SetUint64(env.BlockContext().Time + delay)
		if t.Eta.Cmp(earliest) < 0 {
			return nil, reverts.NewValidation("eta %v must satisfy delay, earliest %v", t.Eta, earliest)
		}
		hash, err := t.Hash()
		if err != nil {
			return nil, err
		}
		queued := tl.queued(hash)
		already, err := queued.Get()
		if err != nil {
			return nil, err
		}
		if already {
			return nil, reverts.NewInvariant("transaction %v already queued", hash)
		}
		queued.Set(true)
		if err := t.log(env, queueEvent, hash); err != nil {
			return nil, err
		}
		return []any{hash}, nil
	})

	c.Register(cancelTransactionDecl, func(env *xenv.Environment) ([]any, error) {
		var t Transaction
		if err := env.ParseArgs(&t); err != nil {
			return nil, err
		}
		tl := timelock(env)
		if err := tl.requireAdmin(env, false); err != nil {
			return nil, err
		}
		hash, err := t.Hash()
		if err != nil {
			return nil, err
		}
		tl.queued(hash).Set(false)
		return nil, t.log(env, cancelEvent, hash)
	})

	c.Register(executeTransactionDecl, func(env *xenv.Environment) ([]any, error) {
		var t Transaction
		if err := env.ParseArgs(&t); err != nil {
			return nil, err
		}
		tl := timelock(env)
		if err := tl.requireAdmin(env, false); err != nil {
			return nil, err
		}
		hash, err := t.Hash()
		if err != nil {
			return nil, err
		}
		queued := tl.queued(hash)
		ok, err := queued.Get()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, reverts.NewState("transaction %v is not queued", hash)
		}
		now := new(big.Int).SetUint64(env.BlockContext().Time)
		if now.Cmp(t.Eta) < 0 {
			return nil, reverts.NewState("transaction has not surpassed time lock")
		}
		if now.Cmp(new(big.Int).Add(t.Eta, new(big.Int).SetUint64(sxp.GracePeriod))) > 0 {
			return nil, reverts.NewState("transaction is stale")
		}

		queued.Set(false)
		output, err := env.CallRaw(xenv.Address(t.Target), t.Value, t.Calldata())
		if err != nil {
			return nil, err
		}
		if err := t.log(env, executeEvent, hash); err != nil {
			return nil, err
		}
		return []any{output}, nil
	})
	return c
}

func constant(v uint64) xenv.Handler {
	return func(*xenv.Environment) ([]any, error) {
		return []any{new(big.Int).SetUint64(v)}, nil
	}
}
