// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible token staked for voting weight. Besides
// the standard transfer and allowance methods, the owner can burn its own
// balance, lock individual senders and freeze all transfers.
package token

import (
	"math/big"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/roles"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

const (
	// Code is the code tag of the token.
	Code = "token"
	// Layout is the storage layout family of the token.
	Layout = "token"
)

var (
	nameSlot        = solidity.Slot("token.name")
	symbolSlot      = solidity.Slot("token.symbol")
	totalSupplySlot = solidity.Slot("token.totalSupply")
	balancesSlot    = solidity.Slot("token.balances")
	allowancesSlot  = solidity.Slot("token.allowances")
	lockedSlot      = solidity.Slot("token.locked")
	frozenSlot      = solidity.Slot("token.frozen")

	owner = roles.Owner("token")

	transferEvent = abi.MustParseEvent("Transfer(address from, address to, uint256 value)")
	approvalEvent = abi.MustParseEvent("Approval(address owner, address spender, uint256 value)")
	burnEvent     = abi.MustParseEvent("Burn(address burner, uint256 value)")
	lockEvent     = abi.MustParseEvent("LockUser(address user)")
	unlockEvent   = abi.MustParseEvent("UnlockUser(address user)")
	freezeEvent   = abi.MustParseEvent("Freeze()")
	unfreezeEvent = abi.MustParseEvent("Unfreeze()")
)

const (
	transferDecl     = "transfer(address to, uint256 value) returns (bool)"
	transferFromDecl = "transferFrom(address from, address to, uint256 value) returns (bool)"
	balanceOfDecl    = "balanceOf(address owner) returns (uint256)"
)

// Methods of the token other contracts call.
var (
	TransferMethod     = abi.MustParseMethod(transferDecl)
	TransferFromMethod = abi.MustParseMethod(transferFromDecl)
	BalanceOfMethod    = abi.MustParseMethod(balanceOfDecl)
)

// Contract is the token contract.
var Contract = newContract()

type allowanceKey struct {
	owner, spender sxp.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token is the token storage at an address.
type Token struct {
	ctx *solidity.Context
}

func New(addr sxp.Address, st *state.State) *Token {
	return &Token{solidity.NewContext(addr, st)}
}

func newToken(env *xenv.Environment) *Token {
	return New(env.Address(), env.State())
}

func (t *Token) balance(addr sxp.Address) *solidity.Uint256 {
	return solidity.NewUint256(t.ctx, solidity.Derive(balancesSlot, addr.Bytes()))
}

func (t *Token) allowance(holder, spender sxp.Address) *solidity.Uint256 {
	return solidity.NewUint256(t.ctx, solidity.Derive(allowancesSlot, allowanceKey{holder, spender}.Bytes()))
}

func (t *Token) locked(addr sxp.Address) *solidity.Bool {
	return solidity.NewBool(t.ctx, solidity.Derive(lockedSlot, addr.Bytes()))
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr sxp.Address) (*big.Int, error) {
	return t.balance(addr).Get()
}

// TotalSupply returns the amount in circulation.
func (t *Token) TotalSupply() (*big.Int, error) {
	return solidity.NewUint256(t.ctx, totalSupplySlot).Get()
}

// Setup writes the constructor state: metadata, the owner, and the whole supply
// minted to the owner.
func Setup(st *state.State, addr sxp.Address, name, symbol string, ownerAddr sxp.Address, supply *big.Int) error {
	t := New(addr, st)
	if err := solidity.NewValue[string](t.ctx, nameSlot).Set(name); err != nil {
		return err
	}
	if err := solidity.NewValue[string](t.ctx, symbolSlot).Set(symbol); err != nil {
		return err
	}
	owner.Set(t.ctx, ownerAddr)
	if err := solidity.NewUint256(t.ctx, totalSupplySlot).Set(supply); err != nil {
		return err
	}
	return t.balance(ownerAddr).Set(supply)
}

func (t *Token) move(env *xenv.Environment, from, to sxp.Address, value *big.Int) error {
	frozen, err := solidity.NewBool(t.ctx, frozenSlot).Get()
	if err != nil {
		return err
	}
	if frozen {
		return reverts.NewState("token is frozen")
	}
	locked, err := t.locked(from).Get()
	if err != nil {
		return err
	}
	if locked {
		return reverts.NewState("sender %v is locked", from)
	}
	if to.IsZero() {
		return reverts.NewValidation("transfer to the zero address")
	}

	balance, err := t.balance(from).Get()
	if err != nil {
		return err
	}
	if balance.Cmp(value) < 0 {
		return reverts.NewInvariant("transfer amount exceeds balance")
	}
	if _, err := t.balance(from).Sub(value); err != nil {
		return err
	}
	if _, err := t.balance(to).Add(value); err != nil {
		return err
	}
	return env.Log(transferEvent, from, to, value)
}

func newContract() *xenv.Contract {
	c := xenv.NewContract(Code, Layout, 1)
	owner.Register(c, "getOwner", "getAuthorizedNewOwner", "authorizeOwnershipTransfer", "assumeOwnership")

	c.Register("name() returns (string)", func(env *xenv.Environment) ([]any, error) {
		name, err := solidity.NewValue[string](newToken(env).ctx, nameSlot).Get()
		return []any{name}, err
	})
	c.Register("symbol() returns (string)", func(env *xenv.Environment) ([]any, error) {
		symbol, err := solidity.NewValue[string](newToken(env).ctx, symbolSlot).Get()
		return []any{symbol}, err
	})
	c.Register("decimals() returns (uint8)", func(env *xenv.Environment) ([]any, error) {
		return []any{uint8(sxp.Decimals)}, nil
	})
	c.Register("totalSupply() returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		supply, err := newToken(env).TotalSupply()
		return []any{supply}, err
	})
	c.Register(balanceOfDecl, func(env *xenv.Environment) ([]any, error) {
		var addr xenv.ABIAddress
		if err := env.ParseArgs(&addr); err != nil {
			return nil, err
		}
		balance, err := newToken(env).BalanceOf(xenv.Address(addr))
		return []any{balance}, err
	})
	c.Register("allowance(address owner, address spender) returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Owner   xenv.ABIAddress
			Spender xenv.ABIAddress
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		allowance, err := newToken(env).allowance(xenv.Address(args.Owner), xenv.Address(args.Spender)).Get()
		return []any{allowance}, err
	})
	c.Register("isLocked(address user) returns (bool)", func(env *xenv.Environment) ([]any, error) {
		var user xenv.ABIAddress
		if err := env.ParseArgs(&user); err != nil {
			return nil, err
		}
		locked, err := newToken(env).locked(xenv.Address(user)).Get()
		return []any{locked}, err
	})
	c.Register("isFrozen() returns (bool)", func(env *xenv.Environment) ([]any, error) {
		frozen, err := solidity.NewBool(newToken(env).ctx, frozenSlot).Get()
		return []any{frozen}, err
	})

	c.Register(transferDecl, func(env *xenv.Environment) ([]any, error) {
		var args struct {
			To    xenv.ABIAddress
			Value *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		if err := newToken(env).move(env, env.Caller(), xenv.Address(args.To), args.Value); err != nil {
			return nil, err
		}
		return []any{true}, nil
	})
	c.Register(transferFromDecl, func(env *xenv.Environment) ([]any, error) {
		var args struct {
			From  xenv.ABIAddress
			To    xenv.ABIAddress
			Value *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		t := newToken(env)
		from := xenv.Address(args.From)
		allowance := t.allowance(from, env.Caller())
		remaining, err := allowance.Get()
		if err != nil {
			return nil, err
		}
		if remaining.Cmp(args.Value) < 0 {
			return nil, reverts.NewInvariant("transfer amount exceeds allowance")
		}
		if _, err := allowance.Sub(args.Value); err != nil {
			return nil, err
		}
		if err := t.move(env, from, xenv.Address(args.To), args.Value); err != nil {
			return nil, err
		}
		return []any{true}, nil
	})
	c.Register("approve(address spender, uint256 value) returns (bool)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Spender xenv.ABIAddress
			Value   *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		spender := xenv.Address(args.Spender)
		if spender.IsZero() {
			return nil, reverts.NewValidation("approve to the zero address")
		}
		if err := newToken(env).allowance(env.Caller(), spender).Set(args.Value); err != nil {
			return nil, err
		}
		if err := env.Log(approvalEvent, env.Caller(), spender, args.Value); err != nil {
			return nil, err
		}
		return []any{true}, nil
	})

	c.Register("burn(uint256 value)", func(env *xenv.Environment) ([]any, error) {
		var value *big.Int
		if err := env.ParseArgs(&value); err != nil {
			return nil, err
		}
		if err := owner.Require(env); err != nil {
			return nil, err
		}
		t := newToken(env)
		balance, err := t.BalanceOf(env.Caller())
		if err != nil {
			return nil, err
		}
		if balance.Cmp(value) < 0 {
			return nil, reverts.NewInvariant("burn amount exceeds balance")
		}
		if _, err := t.balance(env.Caller()).Sub(value); err != nil {
			return nil, err
		}
		if _, err := solidity.NewUint256(t.ctx, totalSupplySlot).Sub(value); err != nil {
			return nil, err
		}
		if err := env.Log(burnEvent, env.Caller(), value); err != nil {
			return nil, err
		}
		return nil, env.Log(transferEvent, env.Caller(), sxp.Address{}, value)
	})
	c.Register("lockUser(address user)", setLocked(true, lockEvent))
	c.Register("unlockUser(address user)", setLocked(false, unlockEvent))
	c.Register("freeze()", setFrozen(true, freezeEvent))
	c.Register("unfreeze()", setFrozen(false, unfreezeEvent))
	return c
}

func setLocked(locked bool, ev *abi.Event) xenv.Handler {
	return func(env *xenv.Environment) ([]any, error) {
		var user xenv.ABIAddress
		if err := env.ParseArgs(&user); err != nil {
			return nil, err
		}
		if err := owner.Require(env); err != nil {
			return nil, err
		}
		newToken(env).locked(xenv.Address(user)).Set(locked)
		return nil, env.Log(ev, xenv.Address(user))
	}
}

func setFrozen(frozen bool, ev *abi.Event) xenv.Handler {
	return func(env *xenv.Environment) ([]any, error) {
		if err := owner.Require(env); err != nil {
			return nil, err
		}
		flag := solidity.NewBool(newToken(env).ctx, frozenSlot)
		current, err := flag.Get()
		if err != nil {
			return nil, err
		}
		if current == frozen {
			return nil, reverts.NewState("token frozen state is already %v", frozen)
		}
		flag.Set(frozen)
		return nil, env.Log(ev)
	}
}
