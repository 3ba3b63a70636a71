// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/genesis"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/test/testchain"
)

func tokens(n int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(sxp.Tokens(n))
}

func bigOf(v *math.HexOrDecimal256) *big.Int {
	return (*big.Int)(v)
}

func newChain(t *testing.T, g *genesis.Genesis) *testchain.Chain {
	chain, err := testchain.NewWithGenesis(g)
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })
	return chain
}

func call(t *testing.T, c *testchain.Contract, method string, args ...any) any {
	out, err := c.Call(method, args...)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestDevnet(t *testing.T) {
	g := genesis.NewDevnet()
	assert.Equal(t, "devnet", g.Name())

	chain := newChain(t, g)
	blk := chain.GenesisBlock()
	assert.Equal(t, uint64(0), blk.Number)
	assert.Equal(t, g.Config().LaunchTime, blk.Time)
	for _, r := range blk.Receipts {
		assert.False(t, r.Reverted, r.RevertReason)
	}
	assert.Equal(t, uint64(1), chain.Head().Number)

	tok := chain.Token()
	for i := 1; i < 10; i++ {
		balance := testchain.BigOf(call(t, tok, "balanceOf", chain.Account(i)))
		assert.Equal(t, sxp.Tokens(1_000_000).String(), balance.String())
	}
	balance := testchain.BigOf(call(t, tok, "balanceOf", chain.Deployer()))
	assert.Equal(t, sxp.Tokens(300_000_000-9_000_000).String(), balance.String())

	staking := chain.Staking(3)
	assert.Equal(t, builtin.StakingV3.Address, testchain.AddressOf(call(t, staking, "getImplementation")))
	assert.Equal(t, builtin.Token.Address, testchain.AddressOf(call(t, staking, "token")))

	gov := chain.Governance()
	assert.Equal(t, sxp.DefaultVotingPeriod, testchain.BigOf(call(t, gov, "votingPeriod")).Uint64())
	assert.Equal(t, sxp.DefaultQuorumVotes.String(), testchain.BigOf(call(t, gov, "quorumVotes")).String())
	assert.Equal(t, builtin.TimelockProxy.Address, testchain.AddressOf(call(t, gov, "timelock")))
	assert.Equal(t, builtin.StakingProxy.Address, testchain.AddressOf(call(t, gov, "staking")))

	assert.Equal(t, builtin.GovernanceProxy.Address, testchain.AddressOf(call(t, chain.Timelock(), "admin")))

	// without hand over the deployer keeps every proxy
	assert.Equal(t, chain.Deployer(), testchain.AddressOf(call(t, gov, "getOwner")))
	assert.True(t, testchain.AddressOf(call(t, gov, "getAuthorizedNewOwner")).IsZero())
}

func TestCustom(t *testing.T) {
	cfg := genesis.DevConfig()
	cfg.BlockInterval = 3
	cfg.RewardProvider = genesis.DevAccounts()[1].Address
	cfg.Staking.Version = 2
	cfg.Staking.RewardPool = tokens(50_000)
	cfg.Governance.VotingDelay = 4
	cfg.HandOver = true

	g, err := genesis.NewCustom("custom", cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), g.RuntimeOptions().Interval)

	chain := newChain(t, g)
	staking := chain.Staking(2)
	assert.Equal(t, builtin.StakingV2.Address, testchain.AddressOf(call(t, staking, "getImplementation")))
	assert.Equal(t, cfg.RewardProvider, testchain.AddressOf(call(t, staking, "rewardProvider")))
	assert.Equal(t, sxp.Tokens(50_000).String(), testchain.BigOf(call(t, staking, "rewardPoolAmount")).String())
	pool := testchain.BigOf(call(t, chain.Token(), "balanceOf", builtin.StakingProxy.Address))
	assert.Equal(t, sxp.Tokens(50_000).String(), pool.String())

	assert.Equal(t, uint64(4), testchain.BigOf(call(t, chain.Governance(), "votingDelay")).Uint64())
	assert.Equal(t, cfg.Timelock.Delay, testchain.BigOf(call(t, chain.Timelock(), "delay")).Uint64())

	owned := []*testchain.Contract{chain.Token(), staking, chain.Governance(), chain.Timelock(), chain.Cards()}
	for _, c := range owned {
		assert.Equal(t, builtin.TimelockProxy.Address, testchain.AddressOf(call(t, c, "getAuthorizedNewOwner")), c.Address().String())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *genesis.Config)
	}{
		{"no deployer", func(cfg *genesis.Config) { cfg.Deployer = sxp.Address{} }},
		{"no guardian", func(cfg *genesis.Config) { cfg.Guardian = sxp.Address{} }},
		{"no token name", func(cfg *genesis.Config) { cfg.Token.Name = "" }},
		{"staking version", func(cfg *genesis.Config) { cfg.Staking.Version = 4 }},
		{"age before v3", func(cfg *genesis.Config) {
			cfg.Staking.Version = 2
			cfg.Staking.MinimumWithdrawableAge = 10
		}},
		{"delay too short", func(cfg *genesis.Config) { cfg.Timelock.Delay = 60 }},
		{"over allocated", func(cfg *genesis.Config) { cfg.Staking.RewardPool = tokens(300_000_000) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := genesis.DevConfig()
			tt.mutate(cfg)
			_, err := genesis.NewCustom("invalid", cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
launchTime: 1700000000
blockInterval: 5
deployer: "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"
guardian: "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"
rewardProvider: "0x435933c8064b4ae76be665428e0307ef2ccfbd68"
token:
  name: Swipe
  symbol: SXP
  supply: "1000000000000000000000000"
accounts:
  - address: "0x435933c8064b4ae76be665428e0307ef2ccfbd68"
    balance: "0x3635c9adc5dea00000"
staking:
  version: 3
  minimumWithdrawableAge: 100
timelock:
  delay: 172800
governance:
  votingPeriod: 40
  quorumVotes: "5000000000000000000000"
handOver: true
`), 0o600))

	cfg, err := genesis.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cfg.BlockInterval)
	assert.Equal(t, "0x435933c8064b4ae76be665428e0307ef2ccfbd68", cfg.RewardProvider.String())
	assert.Equal(t, sxp.Tokens(1_000_000).String(), bigOf(cfg.Token.Supply).String())
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, sxp.Tokens(1000).String(), bigOf(cfg.Accounts[0].Balance).String())
	assert.Equal(t, uint64(100), cfg.Staking.MinimumWithdrawableAge)
	assert.Equal(t, sxp.Tokens(5000).String(), bigOf(cfg.Governance.QuorumVotes).String())
	assert.True(t, cfg.HandOver)

	g, err := genesis.NewCustom("loaded", cfg)
	require.NoError(t, err)
	chain := newChain(t, g)
	for _, r := range chain.GenesisBlock().Receipts {
		assert.False(t, r.Reverted, r.RevertReason)
	}
	balance := testchain.BigOf(call(t, chain.Token(), "balanceOf", cfg.Accounts[0].Address))
	assert.Equal(t, sxp.Tokens(1000).String(), balance.String())
	gov := chain.Governance()
	assert.Equal(t, uint64(40), testchain.BigOf(call(t, gov, "votingPeriod")).Uint64())
	assert.Equal(t, sxp.Tokens(5000).String(), testchain.BigOf(call(t, gov, "quorumVotes")).String())
	assert.Equal(t, builtin.TimelockProxy.Address, testchain.AddressOf(call(t, gov, "getAuthorizedNewOwner")))
}
