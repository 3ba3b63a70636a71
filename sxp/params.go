// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sxp

import "math/big"

// Timelock constants, in seconds.
const (
	GracePeriod  uint64 = 14 * 24 * 60 * 60
	MinimumDelay uint64 = 60 * 60
	MaximumDelay uint64 = 30 * 24 * 60 * 60
)

// Staking constants.
const (
	DefaultRewardCycle         uint64 = 24 * 60 * 60
	DefaultRewardPendingPeriod uint64 = 24 * 60 * 60
	// MaxWithdrawableAge is about a week of 15 second blocks.
	MaxWithdrawableAge uint64 = 40320
)

// Governance constants.
const (
	DefaultVotingDelay           uint64 = 1
	DefaultVotingPeriod          uint64 = 17280
	DefaultProposalMaxOperations uint64 = 10
	MaxProposalOperations        uint64 = 100
)

// DefaultBlockInterval is the block interval in seconds used when none is configured.
const DefaultBlockInterval uint64 = 10

// Decimals of the staked token.
const Decimals = 18

var (
	// Ether is 10^18, the base unit multiplier of the token.
	Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

	DefaultMinimumStakeAmount = Tokens(1000)
	DefaultRewardAmount       = Tokens(40000)
	DefaultQuorumVotes        = Tokens(1000)
	DefaultProposalThreshold  = new(big.Int)
)

// Tokens returns n whole tokens in base units.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}
