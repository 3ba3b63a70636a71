// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the staking ledger logic served behind a proxy.
// Three logic versions share one storage layout, each appending fields:
// V2 adds the reward pending period, V3 the minimum withdrawable age.
package staking

import (
	"fmt"
	"math/big"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/roles"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/builtin/token"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// Layout is the storage layout family of all staking versions.
const Layout = "staking"

var (
	guardian = roles.Guardian(Layout)

	stakeEvent              = abi.MustParseEvent("Stake(address staker, uint256 amount)")
	withdrawEvent           = abi.MustParseEvent("Withdraw(address staker, uint256 amount)")
	depositRewardPoolEvent  = abi.MustParseEvent("DepositRewardPool(address depositor, uint256 amount)")
	withdrawRewardPoolEvent = abi.MustParseEvent("WithdrawRewardPool(address withdrawer, uint256 amount)")
	approveClaimEvent       = abi.MustParseEvent("ApproveClaim(address claimant, uint256 amount, uint256 nonce)")
	claimEvent              = abi.MustParseEvent("Claim(address claimant, uint256 amount, uint256 nonce)")
	minimumStakeEvent       = abi.MustParseEvent("MinimumStakeAmountUpdate(uint256 oldValue, uint256 newValue)")
	rewardProviderEvent     = abi.MustParseEvent("RewardProviderUpdate(address oldValue, address newValue)")
	rewardPolicyEvent       = abi.MustParseEvent(
		"RewardPolicyUpdate(uint256 oldCycle, uint256 oldAmount, uint256 newCycle, uint256 newAmount, uint256 timestamp)")
	rewardPolicyV2Event = abi.MustParseEvent(
		"RewardPolicyUpdate(uint256 oldCycle, uint256 oldAmount, uint256 oldPendingPeriod, uint256 newCycle, uint256 newAmount, uint256 newPendingPeriod, uint256 timestamp)")
	withdrawableAgeEvent = abi.MustParseEvent("MinimumWithdrawableAgeUpdate(uint256 oldValue, uint256 newValue)")
)

// GetPriorStakedAmountMethod is what governance snapshots voting weight with.
var GetPriorStakedAmountMethod = abi.MustParseMethod(getPriorStakedAmountDecl)

const getPriorStakedAmountDecl = "getPriorStakedAmount(address staker, uint256 blockNumber) returns (uint256)"

// Logic versions.
var (
	V1 = newContract(1)
	V2 = newContract(2)
	V3 = newContract(3)
)

// Code returns the code tag of a logic version.
func Code(version uint64) string {
	return fmt.Sprintf("%s/v%d", Layout, version)
}

func newContract(version uint64) *xenv.Contract {
	c := xenv.NewContract(Code(version), Layout, version)
	guardian.Register(c, "guardian", "authorizedNewGuardian", "authorizeGuardianshipTransfer", "assumeGuardianship")

	c.Register("initialize(address guardian, address token, address rewardProvider)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Guardian       xenv.ABIAddress
			Token          xenv.ABIAddress
			RewardProvider xenv.ABIAddress
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		if err := proxy.Initialize(env, Layout); err != nil {
			return nil, err
		}
		l := ledger(env)
		guardian.Set(l.ctx, xenv.Address(args.Guardian))
		l.token().Set(xenv.Address(args.Token))
		l.rewardProvider().Set(xenv.Address(args.RewardProvider))
		if err := l.minimumStakeAmount().Set(sxp.DefaultMinimumStakeAmount); err != nil {
			return nil, err
		}
		if err := l.rewardCycle().Set(new(big.Int).SetUint64(sxp.DefaultRewardCycle)); err != nil {
			return nil, err
		}
		if err := l.rewardAmount().Set(sxp.DefaultRewardAmount); err != nil {
			return nil, err
		}
		if version >= 2 {
			if err := l.rewardPendingPeriod().Set(new(big.Int).SetUint64(sxp.DefaultRewardPendingPeriod)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	registerViews(c, version)
	registerStaking(c, version)
	registerRewardPool(c)
	registerSetters(c, version)
	return c
}

func ledger(env *xenv.Environment) *Ledger {
	return NewLedger(env.Address(), env.State())
}

func registerViews(c *xenv.Contract, version uint64) {
	uint256View := func(get func(*Ledger) (*big.Int, error)) xenv.Handler {
		return func(env *xenv.Environment) ([]any, error) {
			v, err := get(ledger(env))
			return []any{v}, err
		}
	}
	addressView := func(get func(*Ledger) (sxp.Address, error)) xenv.Handler {
		return func(env *xenv.Environment) ([]any, error) {
			v, err := get(ledger(env))
			return []any{v}, err
		}
	}

	c.Register("token() returns (address)", addressView(func(l *Ledger) (sxp.Address, error) { return l.token().Get() }))
	c.Register("rewardProvider() returns (address)", addressView(func(l *Ledger) (sxp.Address, error) { return l.rewardProvider().Get() }))
	c.Register("totalStaked() returns (uint256)", uint256View((*Ledger).TotalStaked))
	c.Register("minimumStakeAmount() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) { return l.minimumStakeAmount().Get() }))
	c.Register("rewardCycle() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) { return l.rewardCycle().Get() }))
	c.Register("rewardAmount() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) { return l.rewardAmount().Get() }))
	c.Register("rewardPoolAmount() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) { return l.rewardPoolAmount().Get() }))
	c.Register("claimNonce() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) {
		nonce, err := l.claimNonce().Get()
		return new(big.Int).SetUint64(nonce), err
	}))
	c.Register("pendingClaim(uint256 nonce) returns (address claimant, uint256 amount)", func(env *xenv.Environment) ([]any, error) {
		var nonce *big.Int
		if err := env.ParseArgs(&nonce); err != nil {
			return nil, err
		}
		if !nonce.IsUint64() {
			return []any{sxp.Address{}, new(big.Int)}, nil
		}
		claim, err := ledger(env).pendingClaims().Get(solidity64(nonce))
		if err != nil {
			return nil, err
		}
		return []any{claim.Claimant, amountOf(claim.Amount)}, nil
	})

	c.Register("getStakedAmount(address staker) returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		var staker xenv.ABIAddress
		if err := env.ParseArgs(&staker); err != nil {
			return nil, err
		}
		amount, err := ledger(env).StakedAmount(xenv.Address(staker))
		return []any{amount}, err
	})
	c.Register(getPriorStakedAmountDecl, func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Staker      xenv.ABIAddress
			BlockNumber *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		current := env.BlockContext().Number
		if !args.BlockNumber.IsUint64() || args.BlockNumber.Uint64() >= current {
			return nil, reverts.NewValidation("block %v is not yet determined", args.BlockNumber)
		}
		amount, err := ledger(env).BalanceAt(xenv.Address(args.Staker), args.BlockNumber.Uint64())
		return []any{amount}, err
	})

	if version >= 2 {
		c.Register("rewardPendingPeriod() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) { return l.rewardPendingPeriod().Get() }))
	}
	if version >= 3 {
		c.Register("minimumWithdrawableAge() returns (uint256)", uint256View(func(l *Ledger) (*big.Int, error) {
			age, err := l.minimumWithdrawableAge().Get()
			return new(big.Int).SetUint64(age), err
		}))
		c.Register("getWithdrawableStakedAmount(address staker) returns (uint256)", func(env *xenv.Environment) ([]any, error) {
			var staker xenv.ABIAddress
			if err := env.ParseArgs(&staker); err != nil {
				return nil, err
			}
			l := ledger(env)
			age, err := l.minimumWithdrawableAge().Get()
			if err != nil {
				return nil, err
			}
			amount, err := l.WithdrawableAmount(xenv.Address(staker), env.BlockContext().Number, age)
			return []any{amount}, err
		})
	}
}

func registerStaking(c *xenv.Contract, version uint64) {
	c.Register("stake(uint256 amount)", func(env *xenv.Environment) ([]any, error) {
		var amount *big.Int
		if err := env.ParseArgs(&amount); err != nil {
			return nil, err
		}
		if amount.Sign() <= 0 {
			return nil, reverts.NewValidation("stake amount must be positive")
		}
		l := ledger(env)
		staker := env.Caller()

		balance, err := l.adjust(staker, env.BlockContext().Number, amount)
		if err != nil {
			return nil, err
		}
		minimum, err := l.minimumStakeAmount().Get()
		if err != nil {
			return nil, err
		}
		if balance.Cmp(minimum) < 0 {
			return nil, reverts.NewValidation("staked balance below minimum stake amount %v", minimum)
		}
		if err := env.Log(stakeEvent, staker, amount); err != nil {
			return nil, err
		}
		return nil, pull(env, l, staker, amount)
	})

	c.Register("withdraw(uint256 amount)", func(env *xenv.Environment) ([]any, error) {
		var amount *big.Int
		if err := env.ParseArgs(&amount); err != nil {
			return nil, err
		}
		if amount.Sign() <= 0 {
			return nil, reverts.NewValidation("withdraw amount must be positive")
		}
		l := ledger(env)
		staker := env.Caller()
		current := env.BlockContext().Number

		var (
			available *big.Int
			err       error
		)
		if version >= 3 {
			age, err := l.minimumWithdrawableAge().Get()
			if err != nil {
				return nil, err
			}
			available, err = l.WithdrawableAmount(staker, current, age)
			if err != nil {
				return nil, err
			}
		} else if available, err = l.StakedAmount(staker); err != nil {
			return nil, err
		}
		if amount.Cmp(available) > 0 {
			return nil, reverts.NewInvariant("withdraw amount exceeds withdrawable staked amount %v", available)
		}

		if _, err := l.adjust(staker, current, new(big.Int).Neg(amount)); err != nil {
			return nil, err
		}
		if err := env.Log(withdrawEvent, staker, amount); err != nil {
			return nil, err
		}
		return nil, push(env, l, staker, amount)
	})
}

func registerRewardPool(c *xenv.Contract) {
	c.Register("depositRewardPool(uint256 amount)", func(env *xenv.Environment) ([]any, error) {
		var amount *big.Int
		if err := env.ParseArgs(&amount); err != nil {
			return nil, err
		}
		l := ledger(env)
		if err := requireProvider(env, l); err != nil {
			return nil, err
		}
		if amount.Sign() <= 0 {
			return nil, reverts.NewValidation("deposit amount must be positive")
		}
		if _, err := l.rewardPoolAmount().Add(amount); err != nil {
			return nil, err
		}
		if err := env.Log(depositRewardPoolEvent, env.Caller(), amount); err != nil {
			return nil, err
		}
		return nil, pull(env, l, env.Caller(), amount)
	})

	c.Register("withdrawRewardPool(uint256 amount)", func(env *xenv.Environment) ([]any, error) {
		var amount *big.Int
		if err := env.ParseArgs(&amount); err != nil {
			return nil, err
		}
		l := ledger(env)
		if err := requireProvider(env, l); err != nil {
			return nil, err
		}
		if amount.Sign() <= 0 {
			return nil, reverts.NewValidation("withdraw amount must be positive")
		}
		if err := drainPool(l, amount); err != nil {
			return nil, err
		}
		if err := env.Log(withdrawRewardPoolEvent, env.Caller(), amount); err != nil {
			return nil, err
		}
		return nil, push(env, l, env.Caller(), amount)
	})

	c.Register("approveClaim(address claimant, uint256 amount) returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Claimant xenv.ABIAddress
			Amount   *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		l := ledger(env)
		if err := requireProvider(env, l); err != nil {
			return nil, err
		}
		claimant := xenv.Address(args.Claimant)
		if claimant.IsZero() {
			return nil, reverts.NewValidation("claimant is the zero address")
		}
		if args.Amount.Sign() <= 0 {
			return nil, reverts.NewValidation("claim amount must be positive")
		}
		nonce, err := l.claimNonce().Increment()
		if err != nil {
			return nil, err
		}
		if err := l.pendingClaims().Set(solidity.Uint64Key(nonce), Claim{claimant, args.Amount}); err != nil {
			return nil, err
		}
		n := new(big.Int).SetUint64(nonce)
		if err := env.Log(approveClaimEvent, claimant, args.Amount, n); err != nil {
			return nil, err
		}
		return []any{n}, nil
	})

	c.Register("claim(uint256 nonce)", func(env *xenv.Environment) ([]any, error) {
		var nonce *big.Int
		if err := env.ParseArgs(&nonce); err != nil {
			return nil, err
		}
		if !nonce.IsUint64() || nonce.Sign() == 0 {
			return nil, reverts.NewState("claim %v is not pending", nonce)
		}
		l := ledger(env)
		key := solidity64(nonce)
		claim, err := l.pendingClaims().Get(key)
		if err != nil {
			return nil, err
		}
		if claim.Claimant.IsZero() {
			return nil, reverts.NewState("claim %v is not pending", nonce)
		}
		if claim.Claimant != env.Caller() {
			return nil, reverts.NewAuthorization("caller is not the claimant")
		}

		// consume the nonce before paying out
		l.pendingClaims().Delete(key)
		if err := drainPool(l, claim.Amount); err != nil {
			return nil, err
		}
		if err := env.Log(claimEvent, claim.Claimant, claim.Amount, nonce); err != nil {
			return nil, err
		}
		return nil, push(env, l, claim.Claimant, claim.Amount)
	})
}

func registerSetters(c *xenv.Contract, version uint64) {
	c.Register("setMinimumStakeAmount(uint256 amount)", func(env *xenv.Environment) ([]any, error) {
		var amount *big.Int
		if err := env.ParseArgs(&amount); err != nil {
			return nil, err
		}
		l := ledger(env)
		if version == 1 {
			if err := requireGuardianOrProvider(env, l); err != nil {
				return nil, err
			}
		} else if err := guardian.Require(env); err != nil {
			return nil, err
		}
		old, err := l.minimumStakeAmount().Get()
		if err != nil {
			return nil, err
		}
		if err := l.minimumStakeAmount().Set(amount); err != nil {
			return nil, err
		}
		return nil, env.Log(minimumStakeEvent, old, amount)
	})

	c.Register("setRewardProvider(address rewardProvider)", func(env *xenv.Environment) ([]any, error) {
		var provider xenv.ABIAddress
		if err := env.ParseArgs(&provider); err != nil {
			return nil, err
		}
		if err := guardian.Require(env); err != nil {
			return nil, err
		}
		l := ledger(env)
		old, err := l.rewardProvider().Get()
		if err != nil {
			return nil, err
		}
		l.rewardProvider().Set(xenv.Address(provider))
		return nil, env.Log(rewardProviderEvent, old, xenv.Address(provider))
	})

	if version == 1 {
		c.Register("setRewardPolicy(uint256 rewardCycle, uint256 rewardAmount)", func(env *xenv.Environment) ([]any, error) {
			var args struct {
				RewardCycle  *big.Int
				RewardAmount *big.Int
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			l := ledger(env)
			if err := requireProvider(env, l); err != nil {
				return nil, err
			}
			oldCycle, oldAmount, err := swapPolicy(l, args.RewardCycle, args.RewardAmount)
			if err != nil {
				return nil, err
			}
			timestamp := new(big.Int).SetUint64(env.BlockContext().Time)
			return nil, env.Log(rewardPolicyEvent, oldCycle, oldAmount, args.RewardCycle, args.RewardAmount, timestamp)
		})
		return
	}

	c.Register("setRewardPolicy(uint256 rewardCycle, uint256 rewardAmount, uint256 rewardPendingPeriod)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			RewardCycle         *big.Int
			RewardAmount        *big.Int
			RewardPendingPeriod *big.Int
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		if err := guardian.Require(env); err != nil {
			return nil, err
		}
		l := ledger(env)
		oldCycle, oldAmount, err := swapPolicy(l, args.RewardCycle, args.RewardAmount)
		if err != nil {
			return nil, err
		}
		oldPeriod, err := l.rewardPendingPeriod().Get()
		if err != nil {
			return nil, err
		}
		if err := l.rewardPendingPeriod().Set(args.RewardPendingPeriod); err != nil {
			return nil, err
		}
		timestamp := new(big.Int).SetUint64(env.BlockContext().Time)
		return nil, env.Log(rewardPolicyV2Event,
			oldCycle, oldAmount, oldPeriod,
			args.RewardCycle, args.RewardAmount, args.RewardPendingPeriod,
			timestamp)
	})

	if version >= 3 {
		c.Register("setMinimumWithdrawableAge(uint256 age)", func(env *xenv.Environment) ([]any, error) {
			var age *big.Int
			if err := env.ParseArgs(&age); err != nil {
				return nil, err
			}
			if err := guardian.Require(env); err != nil {
				return nil, err
			}
			if !age.IsUint64() || age.Uint64() > sxp.MaxWithdrawableAge {
				return nil, reverts.NewValidation("withdrawable age %v exceeds %d blocks", age, sxp.MaxWithdrawableAge)
			}
			l := ledger(env)
			old, err := l.minimumWithdrawableAge().Get()
			if err != nil {
				return nil, err
			}
			l.minimumWithdrawableAge().Set(age.Uint64())
			return nil, env.Log(withdrawableAgeEvent, new(big.Int).SetUint64(old), age)
		})
	}
}

func swapPolicy(l *Ledger, cycle, amount *big.Int) (oldCycle, oldAmount *big.Int, err error) {
	if oldCycle, err = l.rewardCycle().Get(); err != nil {
		return
	}
	if oldAmount, err = l.rewardAmount().Get(); err != nil {
		return
	}
	if err = l.rewardCycle().Set(cycle); err != nil {
		return
	}
	err = l.rewardAmount().Set(amount)
	return
}

func requireProvider(env *xenv.Environment, l *Ledger) error {
	provider, err := l.rewardProvider().Get()
	if err != nil {
		return err
	}
	if provider.IsZero() || provider != env.Caller() {
		return reverts.NewAuthorization("caller is not the reward provider")
	}
	return nil
}

func requireGuardianOrProvider(env *xenv.Environment, l *Ledger) error {
	ok, err := guardian.Has(l.ctx, env.Caller())
	if err != nil || ok {
		return err
	}
	return requireProvider(env, l)
}

func drainPool(l *Ledger, amount *big.Int) error {
	pool, err := l.rewardPoolAmount().Get()
	if err != nil {
		return err
	}
	if pool.Cmp(amount) < 0 {
		return reverts.NewInvariant("reward pool holds %v, less than %v", pool, amount)
	}
	_, err = l.rewardPoolAmount().Sub(amount)
	return err
}

// pull moves amount from account into the ledger through the token allowance.
func pull(env *xenv.Environment, l *Ledger, account sxp.Address, amount *big.Int) error {
	tok, err := l.token().Get()
	if err != nil {
		return err
	}
	return expectSuccess(env, tok, token.TransferFromMethod, account, env.Address(), amount)
}

// push pays amount out of the ledger to account.
func push(env *xenv.Environment, l *Ledger, account sxp.Address, amount *big.Int) error {
	tok, err := l.token().Get()
	if err != nil {
		return err
	}
	return expectSuccess(env, tok, token.TransferMethod, account, amount)
}

func expectSuccess(env *xenv.Environment, tok sxp.Address, method *abi.Method, args ...any) error {
	var ok bool
	if err := env.CallInto(tok, method, &ok, args...); err != nil {
		return err
	}
	if !ok {
		return reverts.NewInvariant("token %s failed", method.Name())
	}
	return nil
}

func amountOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func solidity64(n *big.Int) solidity.Uint64Key {
	return solidity.Uint64Key(n.Uint64())
}
