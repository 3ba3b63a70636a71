// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/swipegov/sxpgov/sxp"
)

// Config describes a custom genesis.
type Config struct {
	LaunchTime     uint64           `yaml:"launchTime"`
	BlockInterval  uint64           `yaml:"blockInterval"`
	Deployer       sxp.Address      `yaml:"deployer"`
	Guardian       sxp.Address      `yaml:"guardian"`
	RewardProvider sxp.Address      `yaml:"rewardProvider"`
	Token          TokenConfig      `yaml:"token"`
	Accounts       []Account        `yaml:"accounts"`
	Staking        StakingConfig    `yaml:"staking"`
	Timelock       TimelockConfig   `yaml:"timelock"`
	Governance     GovernanceConfig `yaml:"governance"`
	// HandOver authorizes the timelock as the next owner of the token and of
	// every proxy. Governance takes over once a proposal assumes ownership.
	HandOver bool `yaml:"handOver"`
}

// TokenConfig describes the governed token. The deployer owns it and receives
// whatever supply is not allocated to Accounts.
type TokenConfig struct {
	Name   string                `yaml:"name"`
	Symbol string                `yaml:"symbol"`
	Supply *math.HexOrDecimal256 `yaml:"supply"`
}

// Account is a token allocation.
type Account struct {
	Address sxp.Address           `yaml:"address"`
	Balance *math.HexOrDecimal256 `yaml:"balance"`
}

// StakingConfig selects the staking logic installed behind the staking proxy.
// Versions are installed one after another, as on a live network.
type StakingConfig struct {
	Version                uint64                `yaml:"version"`
	MinimumWithdrawableAge uint64                `yaml:"minimumWithdrawableAge"`
	RewardPool             *math.HexOrDecimal256 `yaml:"rewardPool"`
}

// TimelockConfig holds the initial timelock delay in seconds.
type TimelockConfig struct {
	Delay uint64 `yaml:"delay"`
}

// GovernanceConfig overrides the default governance parameters. Zero values
// keep the defaults.
type GovernanceConfig struct {
	VotingDelay       uint64                `yaml:"votingDelay"`
	VotingPeriod      uint64                `yaml:"votingPeriod"`
	QuorumVotes       *math.HexOrDecimal256 `yaml:"quorumVotes"`
	ProposalThreshold *math.HexOrDecimal256 `yaml:"proposalThreshold"`
}

// LoadConfig reads a yaml genesis config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis config")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Deployer.IsZero() {
		return errors.New("deployer required")
	}
	if c.Guardian.IsZero() {
		return errors.New("guardian required")
	}
	if c.RewardProvider.IsZero() {
		return errors.New("reward provider required")
	}
	if c.Token.Name == "" || c.Token.Symbol == "" {
		return errors.New("token name and symbol required")
	}
	if c.Staking.Version < 1 || c.Staking.Version > 3 {
		return errors.Errorf("unsupported staking version %v", c.Staking.Version)
	}
	if c.Staking.MinimumWithdrawableAge > 0 && c.Staking.Version < 3 {
		return errors.New("minimum withdrawable age requires staking version 3")
	}
	if c.Staking.MinimumWithdrawableAge > sxp.MaxWithdrawableAge {
		return errors.Errorf("minimum withdrawable age exceeds %v", sxp.MaxWithdrawableAge)
	}
	if c.Timelock.Delay < sxp.MinimumDelay || c.Timelock.Delay > sxp.MaximumDelay {
		return errors.Errorf("timelock delay out of range [%v, %v]", sxp.MinimumDelay, sxp.MaximumDelay)
	}

	supply := bigOf(c.Token.Supply)
	if supply.Sign() <= 0 {
		return errors.New("token supply must be positive")
	}
	allocated := new(big.Int).Set(bigOf(c.Staking.RewardPool))
	for _, acc := range c.Accounts {
		if acc.Address.IsZero() {
			return errors.New("zero account address")
		}
		allocated.Add(allocated, bigOf(acc.Balance))
	}
	if allocated.Cmp(supply) > 0 {
		return errors.Errorf("allocations %v exceed supply %v", allocated, supply)
	}
	return nil
}

func bigOf(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

func tokens(n int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(sxp.Tokens(n))
}
