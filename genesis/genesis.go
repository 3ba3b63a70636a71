// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis deploys the governance contracts into block 0.
package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/token"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// Genesis to build genesis block.
type Genesis struct {
	builder *Builder
	name    string
	cfg     *Config
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// Config returns the config the genesis was built from.
func (g *Genesis) Config() *Config {
	return g.cfg
}

// RuntimeOptions returns the block production options of the network.
func (g *Genesis) RuntimeOptions() runtime.Options {
	interval := g.cfg.BlockInterval
	if interval == 0 {
		interval = sxp.DefaultBlockInterval
	}
	return runtime.Options{Interval: interval, GenesisTime: g.cfg.LaunchTime}
}

// Build deploys everything into the genesis block of rt.
func (g *Genesis) Build(rt *runtime.Runtime) (*runtime.Block, error) {
	blk, err := g.builder.Build(rt)
	if err != nil {
		return nil, errors.WithMessagef(err, "build %v genesis", g.name)
	}
	return blk, nil
}

// NewCustom creates a genesis from cfg.
func NewCustom(name string, cfg *Config) (*Genesis, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid genesis config")
	}

	var (
		b        = new(Builder)
		deployer = cfg.Deployer
		supply   = bigOf(cfg.Token.Supply)
	)

	for _, d := range builtin.Deployments() {
		b.Deploy(d.Address, d.Contract.Code())
	}
	b.State(func(st *state.State) error {
		for _, d := range builtin.Deployments() {
			if !d.IsProxy() {
				continue
			}
			if err := proxy.Setup(st, d.Address, d.Name, deployer); err != nil {
				return err
			}
		}
		return token.Setup(st, builtin.Token.Address, cfg.Token.Name, cfg.Token.Symbol, deployer, supply)
	})

	for _, acc := range cfg.Accounts {
		if amount := bigOf(acc.Balance); amount.Sign() > 0 {
			b.Call(deployer, builtin.Token.Address, token.TransferMethod, acc.Address, amount)
		}
	}

	setupStaking(b, cfg)

	b.Call(deployer, builtin.TimelockProxy.Address, method(proxy.Contract, "setImplementationAndCall"),
		builtin.Timelock.Address,
		encode(builtin.Timelock.Contract, "initialize", builtin.GovernanceProxy.Address, new(big.Int).SetUint64(cfg.Timelock.Delay)))

	b.Call(deployer, builtin.GovernanceProxy.Address, method(proxy.Contract, "setImplementationAndCall"),
		builtin.Governance.Address,
		encode(builtin.Governance.Contract, "initialize", builtin.TimelockProxy.Address, builtin.StakingProxy.Address, cfg.Guardian))
	setupGovernance(b, cfg)

	b.Call(deployer, builtin.CardsProxy.Address, method(proxy.Contract, "setImplementationAndCall"),
		builtin.Cards.Address,
		encode(builtin.Cards.Contract, "initialize", cfg.Guardian))

	if cfg.HandOver {
		authorize := method(proxy.Contract, "authorizeOwnershipTransfer")
		for _, d := range builtin.Deployments() {
			if d.IsProxy() {
				b.Call(deployer, d.Address, authorize, builtin.TimelockProxy.Address)
			}
		}
		b.Call(deployer, builtin.Token.Address, method(token.Contract, "authorizeOwnershipTransfer"), builtin.TimelockProxy.Address)
	}

	return &Genesis{b, name, cfg}, nil
}

// setupStaking installs staking logic versions in order and funds the reward pool.
func setupStaking(b *Builder, cfg *Config) {
	var (
		deployer = cfg.Deployer
		proxyAt  = builtin.StakingProxy.Address
		versions = []*builtin.Deployment{builtin.StakingV1, builtin.StakingV2, builtin.StakingV3}
	)

	b.Call(deployer, proxyAt, method(proxy.Contract, "setImplementationAndCall"),
		builtin.StakingV1.Address,
		encode(builtin.StakingV1.Contract, "initialize", cfg.Guardian, builtin.Token.Address, cfg.RewardProvider))
	for _, v := range versions[1:cfg.Staking.Version] {
		b.Call(deployer, proxyAt, method(proxy.Contract, "setImplementation"), v.Address)
	}
	if age := cfg.Staking.MinimumWithdrawableAge; age > 0 {
		b.Call(cfg.Guardian, proxyAt, method(builtin.StakingV3.Contract, "setMinimumWithdrawableAge"), new(big.Int).SetUint64(age))
	}

	pool := bigOf(cfg.Staking.RewardPool)
	if pool.Sign() == 0 {
		return
	}
	if cfg.RewardProvider != deployer {
		b.Call(deployer, builtin.Token.Address, token.TransferMethod, cfg.RewardProvider, pool)
	}
	b.Call(cfg.RewardProvider, builtin.Token.Address, method(token.Contract, "approve"), proxyAt, pool)
	b.Call(cfg.RewardProvider, proxyAt, method(builtin.StakingV1.Contract, "depositRewardPool"), pool)
}

// setupGovernance applies non-default governance parameters as the guardian.
func setupGovernance(b *Builder, cfg *Config) {
	var (
		gov      = cfg.Governance
		proxyAt  = builtin.GovernanceProxy.Address
		contract = builtin.Governance.Contract
	)
	if gov.VotingDelay > 0 {
		b.Call(cfg.Guardian, proxyAt, method(contract, "setVotingDelay"), new(big.Int).SetUint64(gov.VotingDelay))
	}
	if gov.VotingPeriod > 0 {
		b.Call(cfg.Guardian, proxyAt, method(contract, "setVotingPeriod"), new(big.Int).SetUint64(gov.VotingPeriod))
	}
	if gov.QuorumVotes != nil {
		b.Call(cfg.Guardian, proxyAt, method(contract, "setQuorumVotes"), bigOf(gov.QuorumVotes))
	}
	if gov.ProposalThreshold != nil {
		b.Call(cfg.Guardian, proxyAt, method(contract, "setProposalThreshold"), bigOf(gov.ProposalThreshold))
	}
}

func method(c *xenv.Contract, name string) *abi.Method {
	m, ok := c.MethodByName(name)
	if !ok {
		panic(errors.Errorf("contract %v has no method %v", c.Code(), name))
	}
	return m.ABI
}

func encode(c *xenv.Contract, name string, args ...any) []byte {
	data, err := method(c, name).EncodeInput(args...)
	if err != nil {
		panic(errors.Wrapf(err, "encode %v.%v", c.Code(), name))
	}
	return data
}
