// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
)

var (
	tokenSlot                  = solidity.Slot("staking.token")
	rewardProviderSlot         = solidity.Slot("staking.rewardProvider")
	minimumStakeAmountSlot     = solidity.Slot("staking.minimumStakeAmount")
	rewardCycleSlot            = solidity.Slot("staking.rewardCycle")
	rewardAmountSlot           = solidity.Slot("staking.rewardAmount")
	rewardPoolAmountSlot       = solidity.Slot("staking.rewardPoolAmount")
	claimNonceSlot             = solidity.Slot("staking.claimNonce")
	pendingClaimsSlot          = solidity.Slot("staking.pendingClaims")
	totalStakedSlot            = solidity.Slot("staking.totalStaked")
	stakedSlot                 = solidity.Slot("staking.staked")
	checkpointsSlot            = solidity.Slot("staking.checkpoints")
	rewardPendingPeriodSlot    = solidity.Slot("staking.rewardPendingPeriod")
	minimumWithdrawableAgeSlot = solidity.Slot("staking.minimumWithdrawableAge")
)

// Checkpoint is the staked balance of an account as of a block.
type Checkpoint struct {
	Block   uint64
	Balance *big.Int
}

// Claim is a reward approved by the provider and not yet claimed.
type Claim struct {
	Claimant sxp.Address
	Amount   *big.Int
}

// Ledger is the staking storage at an address.
type Ledger struct {
	ctx *solidity.Context
}

func NewLedger(addr sxp.Address, st *state.State) *Ledger {
	return &Ledger{solidity.NewContext(addr, st)}
}

func (l *Ledger) token() *solidity.Address          { return solidity.NewAddress(l.ctx, tokenSlot) }
func (l *Ledger) rewardProvider() *solidity.Address { return solidity.NewAddress(l.ctx, rewardProviderSlot) }
func (l *Ledger) minimumStakeAmount() *solidity.Uint256 {
	return solidity.NewUint256(l.ctx, minimumStakeAmountSlot)
}
func (l *Ledger) rewardCycle() *solidity.Uint256      { return solidity.NewUint256(l.ctx, rewardCycleSlot) }
func (l *Ledger) rewardAmount() *solidity.Uint256     { return solidity.NewUint256(l.ctx, rewardAmountSlot) }
func (l *Ledger) rewardPoolAmount() *solidity.Uint256 { return solidity.NewUint256(l.ctx, rewardPoolAmountSlot) }
func (l *Ledger) claimNonce() *solidity.Uint64        { return solidity.NewUint64(l.ctx, claimNonceSlot) }
func (l *Ledger) totalStaked() *solidity.Uint256      { return solidity.NewUint256(l.ctx, totalStakedSlot) }
func (l *Ledger) rewardPendingPeriod() *solidity.Uint256 {
	return solidity.NewUint256(l.ctx, rewardPendingPeriodSlot)
}
func (l *Ledger) minimumWithdrawableAge() *solidity.Uint64 {
	return solidity.NewUint64(l.ctx, minimumWithdrawableAgeSlot)
}

func (l *Ledger) pendingClaims() *solidity.Mapping[solidity.Uint64Key, Claim] {
	return solidity.NewMapping[solidity.Uint64Key, Claim](l.ctx, pendingClaimsSlot)
}

func (l *Ledger) staked(account sxp.Address) *solidity.Uint256 {
	return solidity.NewUint256(l.ctx, solidity.Derive(stakedSlot, account.Bytes()))
}

func (l *Ledger) checkpoints(account sxp.Address) *solidity.Array[Checkpoint] {
	return solidity.NewArray[Checkpoint](l.ctx, solidity.Derive(checkpointsSlot, account.Bytes()))
}

// StakedAmount returns the current staked balance of account.
func (l *Ledger) StakedAmount(account sxp.Address) (*big.Int, error) {
	return l.staked(account).Get()
}

// TotalStaked returns the sum of all staked balances.
func (l *Ledger) TotalStaked() (*big.Int, error) {
	return l.totalStaked().Get()
}

// MinimumWithdrawableAge returns how many blocks a stake ages before it can be withdrawn.
func (l *Ledger) MinimumWithdrawableAge() (uint64, error) {
	return l.minimumWithdrawableAge().Get()
}

// Checkpoints returns the whole checkpoint history of account.
func (l *Ledger) Checkpoints(account sxp.Address) ([]Checkpoint, error) {
	arr := l.checkpoints(account)
	n, err := arr.Len()
	if err != nil {
		return nil, err
	}
	list := make([]Checkpoint, 0, n)
	for i := range n {
		cp, err := arr.Get(i)
		if err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	return list, nil
}

// BalanceAt returns the balance of account in effect at block, found as the
// last checkpoint not after block. It returns zero when no checkpoint qualifies.
func (l *Ledger) BalanceAt(account sxp.Address, block uint64) (*big.Int, error) {
	arr := l.checkpoints(account)
	n, err := arr.Len()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return new(big.Int), nil
	}

	// most lookups target recent blocks
	last, err := arr.Get(n - 1)
	if err != nil {
		return nil, err
	}
	if last.Block <= block {
		return balanceOf(last), nil
	}
	first, err := arr.Get(0)
	if err != nil {
		return nil, err
	}
	if first.Block > block {
		return new(big.Int), nil
	}

	lower, upper := uint64(0), n-1
	for upper > lower {
		center := upper - (upper-lower)/2
		cp, err := arr.Get(center)
		if err != nil {
			return nil, err
		}
		switch {
		case cp.Block == block:
			return balanceOf(cp), nil
		case cp.Block < block:
			lower = center
		default:
			upper = center - 1
		}
	}
	cp, err := arr.Get(lower)
	if err != nil {
		return nil, err
	}
	return balanceOf(cp), nil
}

// WithdrawableAmount returns the part of the staked balance old enough to be
// withdrawn at block current, with age the minimum number of blocks.
func (l *Ledger) WithdrawableAmount(account sxp.Address, current, age uint64) (*big.Int, error) {
	balance, err := l.StakedAmount(account)
	if err != nil {
		return nil, err
	}
	if age == 0 {
		return balance, nil
	}
	if current < age {
		return new(big.Int), nil
	}
	aged, err := l.BalanceAt(account, current-age)
	if err != nil {
		return nil, err
	}
	if aged.Cmp(balance) < 0 {
		return aged, nil
	}
	return balance, nil
}

// adjust applies delta to the balance of account and the total, and records
// the new balance at block. Several updates within a block share a checkpoint.
func (l *Ledger) adjust(account sxp.Address, block uint64, delta *big.Int) (*big.Int, error) {
	staked := l.staked(account)
	var (
		balance *big.Int
		err     error
	)
	if delta.Sign() >= 0 {
		if balance, err = staked.Add(delta); err != nil {
			return nil, err
		}
		if _, err = l.totalStaked().Add(delta); err != nil {
			return nil, err
		}
	} else {
		abs := new(big.Int).Neg(delta)
		if balance, err = staked.Sub(abs); err != nil {
			return nil, err
		}
		if _, err = l.totalStaked().Sub(abs); err != nil {
			return nil, err
		}
	}

	arr := l.checkpoints(account)
	n, err := arr.Len()
	if err != nil {
		return nil, err
	}
	cp := Checkpoint{Block: block, Balance: balance}
	if n > 0 {
		last, err := arr.Get(n - 1)
		if err != nil {
			return nil, err
		}
		if last.Block > block {
			return nil, reverts.NewInvariant("checkpoint block %d behind %d", block, last.Block)
		}
		if last.Block == block {
			return balance, arr.Set(n-1, cp)
		}
	}
	return balance, arr.Push(cp)
}

func balanceOf(cp Checkpoint) *big.Int {
	if cp.Balance == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(cp.Balance)
}
