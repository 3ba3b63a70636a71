// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/tx"
	"github.com/swipegov/sxpgov/xenv"
)

// Contract sends calls to a deployed contract on behalf of an account.
// Methods are looked up on each of the given codes in order, so a proxy can
// expose both its own methods and those of its implementation.
type Contract struct {
	chain  *Chain
	codes  []*xenv.Contract
	addr   sxp.Address
	caller sxp.Address
}

func NewContract(chain *Chain, caller, addr sxp.Address, codes ...*xenv.Contract) *Contract {
	return &Contract{
		chain:  chain,
		codes:  codes,
		addr:   addr,
		caller: caller,
	}
}

// Token binds the token.
func (c *Chain) Token() *Contract {
	return NewContract(c, c.Deployer(), builtin.Token.Address, builtin.Token.Contract)
}

// Staking binds the staking proxy with the given logic version.
func (c *Chain) Staking(version uint64) *Contract {
	impl := []*xenv.Contract{builtin.StakingV1.Contract, builtin.StakingV2.Contract, builtin.StakingV3.Contract}[version-1]
	return NewContract(c, c.Deployer(), builtin.StakingProxy.Address, proxy.Contract, impl)
}

// Governance binds the governance proxy.
func (c *Chain) Governance() *Contract {
	return NewContract(c, c.Deployer(), builtin.GovernanceProxy.Address, proxy.Contract, builtin.Governance.Contract)
}

// Timelock binds the timelock proxy.
func (c *Chain) Timelock() *Contract {
	return NewContract(c, c.Deployer(), builtin.TimelockProxy.Address, proxy.Contract, builtin.Timelock.Contract)
}

// Cards binds the card registry proxy.
func (c *Chain) Cards() *Contract {
	return NewContract(c, c.Deployer(), builtin.CardsProxy.Address, proxy.Contract, builtin.Cards.Contract)
}

// Address returns the contract address.
func (c *Contract) Address() sxp.Address {
	return c.addr
}

// Attach returns a copy of the contract that sends as caller.
func (c *Contract) Attach(caller sxp.Address) *Contract {
	contract := *c
	contract.caller = caller
	return &contract
}

// Method resolves method by name or by full signature, proxy methods first.
// Overloaded methods need the signature.
func (c *Contract) Method(method string) (*abi.Method, error) {
	for _, code := range c.codes {
		if m, ok := code.MethodByName(method); ok {
			return m.ABI, nil
		}
	}
	return nil, errors.Errorf("method %v not found or overloaded", method)
}

// Input encodes a call of method.
func (c *Contract) Input(method string, args ...any) ([]byte, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	return m.EncodeInput(args...)
}

// Call runs method against the current state without side effects and returns
// the decoded outputs. Reverts are returned as errors carrying their kind.
func (c *Contract) Call(method string, args ...any) ([]any, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	return c.chain.rt.CallMethod(c.caller, c.addr, m, args...)
}

// CallInto calls a contract method and decodes the result into the result argument.
func (c *Contract) CallInto(method string, result any, args ...any) error {
	m, err := c.Method(method)
	if err != nil {
		return err
	}
	input, err := m.EncodeInput(args...)
	if err != nil {
		return err
	}
	output, err := c.chain.rt.Call(tx.New(c.caller, c.addr, input))
	if err != nil {
		return err
	}
	return m.DecodeOutput(output, result)
}

// Send executes method in the block being built. A reverted transaction
// returns its receipt together with a revert error of the same kind.
func (c *Contract) Send(method string, args ...any) (*tx.Receipt, error) {
	return c.SendValue(method, nil, args...)
}

// SendValue is Send with native value attached.
func (c *Contract) SendValue(method string, value *big.Int, args ...any) (*tx.Receipt, error) {
	input, err := c.Input(method, args...)
	if err != nil {
		return nil, err
	}
	trx := tx.New(c.caller, c.addr, input)
	if value != nil {
		trx = trx.WithValue(value)
	}
	receipt, err := c.chain.rt.Execute(trx)
	if err != nil {
		return receipt, err
	}
	if receipt.Reverted {
		kind, ok := reverts.ParseKind(receipt.RevertKind)
		if !ok {
			return receipt, errors.New(receipt.RevertReason)
		}
		return receipt, reverts.New(kind, "%s", receipt.RevertReason)
	}
	return receipt, nil
}

// MintTransaction sends method and commits the block.
func (c *Contract) MintTransaction(method string, args ...any) (*tx.Receipt, error) {
	receipt, err := c.Send(method, args...)
	if err != nil {
		return receipt, err
	}
	return receipt, c.chain.MintBlock()
}
