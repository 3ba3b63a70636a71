// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv is the execution environment native contract methods run in.
package xenv

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
)

// BlockContext block context.
type BlockContext struct {
	Number uint64
	Time   uint64
}

// Invoker performs nested calls and collects events on behalf of an Environment.
type Invoker interface {
	// Call runs input against to, caller being the current contract.
	Call(caller, to sxp.Address, value *big.Int, input []byte) ([]byte, error)
	// Delegate runs input with the code bound to code but the storage of storage,
	// keeping caller unchanged.
	Delegate(caller, storage, code sxp.Address, input []byte) ([]byte, error)
	// ContractAt returns the contract bound to addr, nil if none.
	ContractAt(addr sxp.Address) (*Contract, error)
	// Emit records an event.
	Emit(ev *tx.Event)
}

// Environment an env to execute native method.
type Environment struct {
	method  *abi.Method
	state   *state.State
	block   BlockContext
	caller  sxp.Address
	address sxp.Address
	value   *big.Int
	input   []byte
	invoker Invoker
}

// New create a new env.
// address is the storage context the method runs in, which for proxied calls is the proxy.
func New(
	method *abi.Method,
	state *state.State,
	block BlockContext,
	caller sxp.Address,
	address sxp.Address,
	value *big.Int,
	input []byte,
	invoker Invoker,
) *Environment {
	return &Environment{
		method:  method,
		state:   state,
		block:   block,
		caller:  caller,
		address: address,
		value:   value,
		input:   input,
		invoker: invoker,
	}
}

func (env *Environment) Method() *abi.Method        { return env.method }
func (env *Environment) State() *state.State        { return env.state }
func (env *Environment) BlockContext() BlockContext { return env.block }
func (env *Environment) Caller() sxp.Address        { return env.caller }
func (env *Environment) Address() sxp.Address       { return env.address }
func (env *Environment) Value() *big.Int            { return new(big.Int).Set(env.value) }
func (env *Environment) Input() []byte              { return env.input }

// ParseArgs decodes the call input into val.
func (env *Environment) ParseArgs(val any) error {
	if err := env.method.DecodeInput(env.input, val); err != nil {
		return reverts.NewValidation("decode input: %v", err)
	}
	return nil
}

// Log emits an event from the current storage address.
func (env *Environment) Log(ev *abi.Event, args ...any) error {
	data, err := ev.Encode(args...)
	if err != nil {
		return errors.WithMessage(err, "encode native event")
	}
	fields, err := ev.Decode(data)
	if err != nil {
		return errors.WithMessage(err, "decode native event")
	}
	env.invoker.Emit(&tx.Event{
		Address: env.address,
		ID:      ev.ID(),
		Name:    ev.Name(),
		Data:    data,
		Fields:  fields,
	})
	return nil
}

// Call calls method of contract to, with the current address as caller, and returns raw output.
func (env *Environment) Call(to sxp.Address, value *big.Int, method *abi.Method, args ...any) ([]byte, error) {
	input, err := method.EncodeInput(args...)
	if err != nil {
		return nil, errors.WithMessagef(err, "encode input of %v", method.Name())
	}
	return env.CallRaw(to, value, input)
}

// CallInto calls method of contract to and decodes the output into out.
func (env *Environment) CallInto(to sxp.Address, method *abi.Method, out any, args ...any) error {
	output, err := env.Call(to, new(big.Int), method, args...)
	if err != nil {
		return err
	}
	if err := method.DecodeOutput(output, out); err != nil {
		return errors.WithMessagef(err, "decode output of %v", method.Name())
	}
	return nil
}

// CallRaw calls to with prepared input.
func (env *Environment) CallRaw(to sxp.Address, value *big.Int, input []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	return env.invoker.Call(env.address, to, value, input)
}

// Delegate runs input against the code bound to code in the current storage context.
func (env *Environment) Delegate(code sxp.Address, input []byte) ([]byte, error) {
	return env.invoker.Delegate(env.caller, env.address, code, input)
}

// ContractAt returns the contract bound to addr.
func (env *Environment) ContractAt(addr sxp.Address) (*Contract, error) {
	return env.invoker.ContractAt(addr)
}

// ABIAddress is the address type the abi codec decodes into.
type ABIAddress = common.Address

// Address converts an address decoded from abi input.
func Address(a common.Address) sxp.Address {
	return sxp.Address(a)
}

// EthAddress converts an address for abi encoding.
func EthAddress(a sxp.Address) common.Address {
	return common.Address(a)
}
