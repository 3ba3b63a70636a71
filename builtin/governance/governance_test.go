// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/builtin/governance"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/genesis"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/test/testchain"
)

const votingPeriod = 20

type action struct {
	target    sxp.Address
	signature string
	data      []byte
}

type proposal []action

func (p proposal) args(description string) []any {
	var (
		targets    []sxp.Address
		values     []*big.Int
		signatures []string
		calldatas  [][]byte
	)
	for _, a := range p {
		targets = append(targets, a.target)
		values = append(values, new(big.Int))
		signatures = append(signatures, a.signature)
		calldatas = append(calldatas, a.data)
	}
	return []any{targets, values, signatures, calldatas, description}
}

func pack(t *testing.T, types []string, args ...any) []byte {
	data, err := abi.Pack(types, args...)
	require.NoError(t, err)
	return data
}

func newChain(t *testing.T, mutate func(cfg *genesis.Config)) *testchain.Chain {
	cfg := genesis.DevConfig()
	cfg.Governance.VotingPeriod = votingPeriod
	cfg.Timelock.Delay = sxp.MinimumDelay
	cfg.HandOver = true
	if mutate != nil {
		mutate(cfg)
	}
	gene, err := genesis.NewCustom("test", cfg)
	require.NoError(t, err)
	chain, err := testchain.NewWithGenesis(gene)
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })
	return chain
}

func stake(t *testing.T, chain *testchain.Chain, staker sxp.Address, amount *big.Int) {
	_, err := chain.Token().Attach(staker).Send("approve", builtin.StakingProxy.Address, amount)
	require.NoError(t, err)
	_, err = chain.Staking(3).Attach(staker).Send("stake", amount)
	require.NoError(t, err)
}

func stateOf(t *testing.T, chain *testchain.Chain, id *big.Int) governance.State {
	out, err := chain.Governance().Call("state", id)
	require.NoError(t, err)
	return governance.State(out[0].(uint8))
}

func propose(t *testing.T, chain *testchain.Chain, proposer sxp.Address, p proposal) *big.Int {
	gov := chain.Governance().Attach(proposer)
	receipt, err := gov.Send("propose", p.args("test proposal")...)
	require.NoError(t, err)
	m, err := gov.Method("propose")
	require.NoError(t, err)
	out, err := m.DecodeOutputValues(receipt.Output)
	require.NoError(t, err)
	return testchain.BigOf(out[0])
}

// noop is an action that succeeds without effects.
func noop() action {
	return action{builtin.Token.Address, "isFrozen()", nil}
}

// activate mines past the voting delay.
func activate(t *testing.T, chain *testchain.Chain) {
	require.NoError(t, chain.MintBlocks(int(sxp.DefaultVotingDelay)+1))
}

// conclude mines past the voting period.
func conclude(t *testing.T, chain *testchain.Chain) {
	require.NoError(t, chain.MintBlocks(votingPeriod))
}

func TestProposeValidation(t *testing.T) {
	chain := newChain(t, nil)
	alice := chain.Account(1)
	gov := chain.Governance().Attach(alice)

	args := proposal{noop()}.args("mismatch")
	args[1] = []*big.Int{}
	_, err := gov.Send("propose", args...)
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	_, err = gov.Send("propose", proposal{}.args("empty")...)
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	var tooMany proposal
	for range sxp.DefaultProposalMaxOperations + 1 {
		tooMany = append(tooMany, noop())
	}
	_, err = gov.Send("propose", tooMany.args("too many")...)
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	receipt, err := gov.Send("propose", proposal{noop()}.args("first")...)
	require.NoError(t, err)
	ev := testchain.Event(receipt, "ProposalCreation")
	require.NotNil(t, ev)
	assert.Equal(t, "first", ev.Fields["description"])
	start := testchain.BigOf(ev.Fields["startBlock"]).Uint64()
	assert.Equal(t, chain.Head().Number+sxp.DefaultVotingDelay, start)
	assert.Equal(t, start+votingPeriod, testchain.BigOf(ev.Fields["endBlock"]).Uint64())

	// one live proposal per proposer
	_, err = gov.Send("propose", proposal{noop()}.args("second")...)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
	_, err = gov.Attach(chain.Account(2)).Send("propose", proposal{noop()}.args("other proposer")...)
	require.NoError(t, err)

	require.NoError(t, chain.MintBlock())
	activate(t, chain)
	_, err = gov.Send("propose", proposal{noop()}.args("while active")...)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	conclude(t, chain)
	_, err = gov.Send("propose", proposal{noop()}.args("after defeat")...)
	require.NoError(t, err)
}

func TestProposalThreshold(t *testing.T) {
	chain := newChain(t, func(cfg *genesis.Config) {
		cfg.Governance.ProposalThreshold = (*math.HexOrDecimal256)(sxp.Tokens(1500))
	})
	alice := chain.Account(1)

	_, err := chain.Governance().Attach(alice).Send("propose", proposal{noop()}.args("no stake")...)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)

	stake(t, chain, alice, sxp.Tokens(1500))
	// the stake counts from the next block on
	_, err = chain.Governance().Attach(alice).Send("propose", proposal{noop()}.args("same block")...)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)

	require.NoError(t, chain.MintBlock())
	_, err = chain.Governance().Attach(alice).Send("propose", proposal{noop()}.args("staked")...)
	require.NoError(t, err)
}

func TestVoting(t *testing.T) {
	chain := newChain(t, nil)
	alice, bob, carol := chain.Account(1), chain.Account(2), chain.Account(3)
	stake(t, chain, alice, sxp.Tokens(2000))
	stake(t, chain, bob, sxp.Tokens(1000))
	require.NoError(t, chain.MintBlock())

	id := propose(t, chain, alice, proposal{noop()})
	gov := chain.Governance()
	assert.Equal(t, governance.Pending, stateOf(t, chain, id))
	_, err := gov.Attach(alice).Send("castVote", id, true)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	// stake moved before the start block counts, later changes do not
	stake(t, chain, carol, sxp.Tokens(1000))
	require.NoError(t, chain.MintBlock())
	activate(t, chain)
	assert.Equal(t, governance.Active, stateOf(t, chain, id))
	stake(t, chain, bob, sxp.Tokens(5000))

	receipt, err := gov.Attach(alice).Send("castVote", id, true)
	require.NoError(t, err)
	ev := testchain.Event(receipt, "Vote")
	require.NotNil(t, ev)
	assert.Equal(t, sxp.Tokens(2000).String(), testchain.BigOf(ev.Fields["votes"]).String())

	_, err = gov.Attach(alice).Send("castVote", id, false)
	assert.True(t, reverts.Is(err, reverts.Invariant), "got %v", err)

	_, err = gov.Attach(bob).Send("castVote", id, false)
	require.NoError(t, err)
	_, err = gov.Attach(carol).Send("castVote", id, false)
	require.NoError(t, err)
	// no stake, no weight, still recorded
	_, err = gov.Attach(chain.Account(4)).Send("castVote", id, true)
	require.NoError(t, err)

	out, err := gov.Call("getReceipt", id, bob)
	require.NoError(t, err)
	assert.Equal(t, true, out[0])
	assert.Equal(t, false, out[1])
	assert.Equal(t, sxp.Tokens(1000).String(), testchain.BigOf(out[2]).String())

	out, err = gov.Call("getProposal", id)
	require.NoError(t, err)
	assert.Equal(t, alice, testchain.AddressOf(out[1]))
	assert.Equal(t, sxp.Tokens(2000).String(), testchain.BigOf(out[4]).String())
	assert.Equal(t, sxp.Tokens(2000).String(), testchain.BigOf(out[5]).String())

	// a tie is a defeat
	conclude(t, chain)
	assert.Equal(t, governance.Defeated, stateOf(t, chain, id))
	_, err = gov.Attach(alice).Send("castVote", id, true)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
}

func TestQuorum(t *testing.T) {
	chain := newChain(t, func(cfg *genesis.Config) {
		cfg.Governance.QuorumVotes = (*math.HexOrDecimal256)(sxp.Tokens(5000))
	})
	alice := chain.Account(1)
	gov := chain.Governance()
	stake(t, chain, alice, sxp.Tokens(4000))
	require.NoError(t, chain.MintBlock())

	vote := func(id *big.Int) {
		activate(t, chain)
		_, err := gov.Attach(alice).Send("castVote", id, true)
		require.NoError(t, err)
		conclude(t, chain)
	}

	first := propose(t, chain, alice, proposal{noop()})
	vote(first)
	assert.Equal(t, governance.Defeated, stateOf(t, chain, first))

	// a lower quorum does not revive a concluded proposal
	_, err := gov.Send("setQuorumVotes", sxp.Tokens(4000))
	require.NoError(t, err)
	assert.Equal(t, governance.Defeated, stateOf(t, chain, first))

	second := propose(t, chain, alice, proposal{noop()})
	vote(second)
	assert.Equal(t, governance.Succeeded, stateOf(t, chain, second))
}

func TestPolicyChangesApplyToNewProposals(t *testing.T) {
	chain := newChain(t, nil)
	alice, bob := chain.Account(1), chain.Account(2)
	gov := chain.Governance()
	stake(t, chain, alice, sxp.Tokens(2000))
	stake(t, chain, bob, sxp.Tokens(2000))
	require.NoError(t, chain.MintBlock())

	executed := propose(t, chain, alice, proposal{noop()})
	queued := propose(t, chain, bob, proposal{{builtin.Token.Address, "isLocked(address)", pack(t, []string{"address"}, bob)}})
	out, err := gov.Call("getProposal", queued)
	require.NoError(t, err)
	start, end := testchain.BigOf(out[2]).Uint64(), testchain.BigOf(out[3]).Uint64()

	_, err = gov.Send("setVotingDelay", big.NewInt(10))
	require.NoError(t, err)
	_, err = gov.Send("setVotingPeriod", big.NewInt(2*votingPeriod))
	require.NoError(t, err)

	// the voting window of running proposals is unchanged
	activate(t, chain)
	assert.Equal(t, governance.Active, stateOf(t, chain, queued))
	_, err = gov.Attach(alice).Send("castVote", executed, true)
	require.NoError(t, err)
	_, err = gov.Attach(bob).Send("castVote", queued, true)
	require.NoError(t, err)
	conclude(t, chain)
	assert.Equal(t, governance.Succeeded, stateOf(t, chain, queued))

	out, err = gov.Call("getProposal", queued)
	require.NoError(t, err)
	assert.Equal(t, start, testchain.BigOf(out[2]).Uint64())
	assert.Equal(t, end, testchain.BigOf(out[3]).Uint64())

	_, err = gov.Send("queue", executed)
	require.NoError(t, err)
	_, err = gov.Send("queue", queued)
	require.NoError(t, err)
	require.NoError(t, chain.MintBlock())
	chain.AdvanceTime(sxp.MinimumDelay)
	_, err = gov.Send("execute", executed)
	require.NoError(t, err)

	// a quorum above every vote cast leaves reached states in place
	_, err = gov.Send("setQuorumVotes", sxp.Tokens(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, governance.Executed, stateOf(t, chain, executed))
	assert.Equal(t, governance.Queued, stateOf(t, chain, queued))

	receipt, err := gov.Send("cancel", queued)
	require.NoError(t, err)
	assert.Len(t, receipt.EventsByName("CancelTransaction"), 1)
	assert.Equal(t, governance.Canceled, stateOf(t, chain, queued))

	// the next proposal takes the new window
	receipt, err = gov.Attach(alice).Send("propose", proposal{noop()}.args("after changes")...)
	require.NoError(t, err)
	ev := testchain.Event(receipt, "ProposalCreation")
	require.NotNil(t, ev)
	next := testchain.BigOf(ev.Fields["startBlock"]).Uint64()
	assert.Equal(t, chain.Head().Number+10, next)
	assert.Equal(t, next+2*votingPeriod, testchain.BigOf(ev.Fields["endBlock"]).Uint64())
}

// passProposal drives p through voting until it succeeds.
func passProposal(t *testing.T, chain *testchain.Chain, p proposal) *big.Int {
	alice := chain.Account(1)
	stake(t, chain, alice, sxp.Tokens(2000))
	require.NoError(t, chain.MintBlock())

	id := propose(t, chain, alice, p)
	activate(t, chain)
	_, err := chain.Governance().Attach(alice).Send("castVote", id, true)
	require.NoError(t, err)
	conclude(t, chain)
	require.Equal(t, governance.Succeeded, stateOf(t, chain, id))
	return id
}

func TestGovernedUpgrade(t *testing.T) {
	chain := newChain(t, nil)
	dave := chain.Account(4)
	timelockAddr := builtin.TimelockProxy.Address

	// the timelock must hold what it burns, and become the card guardian
	_, err := chain.Token().Send("transfer", timelockAddr, sxp.Tokens(5000))
	require.NoError(t, err)
	_, err = chain.Cards().Send("authorizeGuardianshipTransfer", timelockAddr)
	require.NoError(t, err)

	p := proposal{
		{builtin.Token.Address, "assumeOwnership()", nil},
		{builtin.Token.Address, "burn(uint256)", pack(t, []string{"uint256"}, sxp.Tokens(1000))},
		{builtin.Token.Address, "lockUser(address)", pack(t, []string{"address"}, dave)},
		{builtin.CardsProxy.Address, "assumeOwnership()", nil},
		{builtin.CardsProxy.Address, "assumeGuardianship()", nil},
		{builtin.CardsProxy.Address, "registerCard(string,uint256,uint256,string,string)",
			pack(t, []string{"string", "uint256", "uint256", "string", "string"},
				"Sapphire", sxp.Tokens(300), big.NewInt(180*24*60*60), "0.5", "50")},
		{timelockAddr, "setDelay(uint256)", pack(t, []string{"uint256"}, new(big.Int).SetUint64(2*sxp.MinimumDelay))},
	}
	id := passProposal(t, chain, p)
	gov := chain.Governance()

	_, err = gov.Send("execute", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	receipt, err := gov.Send("queue", id)
	require.NoError(t, err)
	ev := testchain.Event(receipt, "ProposalQueue")
	require.NotNil(t, ev)
	eta := testchain.BigOf(ev.Fields["eta"]).Uint64()
	assert.Equal(t, chain.Head().Time+sxp.MinimumDelay, eta)
	assert.Len(t, receipt.EventsByName("QueueTransaction"), len(p))
	assert.Equal(t, governance.Queued, stateOf(t, chain, id))

	_, err = gov.Send("queue", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
	// the timelock refuses until eta
	_, err = gov.Send("execute", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	require.NoError(t, chain.MintBlock())
	chain.AdvanceTime(sxp.MinimumDelay)
	receipt, err = gov.Attach(chain.Account(7)).Send("execute", id)
	require.NoError(t, err)
	assert.NotNil(t, testchain.Event(receipt, "ProposalExecution"))
	assert.Len(t, receipt.EventsByName("ExecuteTransaction"), len(p))
	assert.Equal(t, governance.Executed, stateOf(t, chain, id))

	out, err := chain.Token().Call("getOwner")
	require.NoError(t, err)
	assert.Equal(t, timelockAddr, testchain.AddressOf(out[0]))
	out, err = chain.Token().Call("totalSupply")
	require.NoError(t, err)
	assert.Equal(t, sxp.Tokens(300_000_000-1000).String(), testchain.BigOf(out[0]).String())
	out, err = chain.Token().Call("isLocked", dave)
	require.NoError(t, err)
	assert.Equal(t, true, out[0])

	out, err = chain.Cards().Call("cards", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "Sapphire", out[1])
	out, err = chain.Cards().Call("getOwner")
	require.NoError(t, err)
	assert.Equal(t, timelockAddr, testchain.AddressOf(out[0]))

	out, err = chain.Timelock().Call("delay")
	require.NoError(t, err)
	assert.Equal(t, 2*sxp.MinimumDelay, testchain.BigOf(out[0]).Uint64())

	_, err = gov.Send("execute", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
}

func TestFailedActionRevertsExecution(t *testing.T) {
	chain := newChain(t, nil)
	// the timelock holds no tokens to burn, and does not own the token yet
	id := passProposal(t, chain, proposal{
		noop(),
		{builtin.Token.Address, "burn(uint256)", pack(t, []string{"uint256"}, sxp.Tokens(1))},
	})
	gov := chain.Governance()
	_, err := gov.Send("queue", id)
	require.NoError(t, err)
	chain.AdvanceTime(sxp.MinimumDelay)

	_, err = gov.Send("execute", id)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)
	assert.Equal(t, governance.Queued, stateOf(t, chain, id))
}

func TestExpired(t *testing.T) {
	chain := newChain(t, nil)
	id := passProposal(t, chain, proposal{noop()})
	gov := chain.Governance()
	_, err := gov.Send("queue", id)
	require.NoError(t, err)

	chain.AdvanceTime(sxp.MinimumDelay + sxp.GracePeriod + 1)
	assert.Equal(t, governance.Expired, stateOf(t, chain, id))
	_, err = gov.Send("execute", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
	_, err = gov.Send("cancel", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)
}

func TestCancel(t *testing.T) {
	chain := newChain(t, nil)
	alice := chain.Account(1)
	gov := chain.Governance()

	id := propose(t, chain, alice, proposal{noop()})
	_, err := gov.Attach(chain.Account(2)).Send("cancel", id)
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)
	receipt, err := gov.Attach(alice).Send("cancel", id)
	require.NoError(t, err)
	assert.NotNil(t, testchain.Event(receipt, "ProposalCancel"))
	assert.Equal(t, governance.Canceled, stateOf(t, chain, id))
	_, err = gov.Attach(alice).Send("cancel", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	// the guardian cancels a queued proposal and its timelock entries
	require.NoError(t, chain.MintBlock())
	id = passProposal(t, chain, proposal{noop()})
	_, err = gov.Send("queue", id)
	require.NoError(t, err)
	receipt, err = gov.Send("cancel", id)
	require.NoError(t, err)
	assert.Len(t, receipt.EventsByName("CancelTransaction"), 1)

	chain.AdvanceTime(sxp.MinimumDelay)
	_, err = gov.Send("execute", id)
	assert.True(t, reverts.Is(err, reverts.State), "got %v", err)

	_, err = gov.Send("cancel", big.NewInt(99))
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)
}

func TestSetters(t *testing.T) {
	chain := newChain(t, nil)
	gov := chain.Governance()

	_, err := gov.Attach(chain.Account(1)).Send("setVotingDelay", big.NewInt(5))
	assert.True(t, reverts.Is(err, reverts.Authorization), "got %v", err)
	_, err = gov.Send("setVotingPeriod", big.NewInt(0))
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)
	_, err = gov.Send("setProposalMaxOperations", new(big.Int).SetUint64(sxp.MaxProposalOperations+1))
	assert.True(t, reverts.Is(err, reverts.Validation), "got %v", err)

	receipt, err := gov.Send("setVotingDelay", big.NewInt(5))
	require.NoError(t, err)
	ev := testchain.Event(receipt, "VotingDelayUpdate")
	require.NotNil(t, ev)
	assert.Equal(t, sxp.DefaultVotingDelay, testchain.BigOf(ev.Fields["oldValue"]).Uint64())

	out, err := gov.Call("votingDelay")
	require.NoError(t, err)
	assert.Equal(t, "5", testchain.BigOf(out[0]).String())
	out, err = gov.Call("votingPeriod")
	require.NoError(t, err)
	assert.Equal(t, uint64(votingPeriod), testchain.BigOf(out[0]).Uint64())
}
