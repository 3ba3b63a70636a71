// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package governance implements proposals voted with staked balances and
// executed through the timelock.
//
// A proposal is Pending until its start block has passed and Active through
// its end block. It then Succeeds when the for votes beat the against votes
// and reach the quorum, and is Defeated otherwise. A succeeded proposal is
// queued into the timelock, and executed once its eta is reached. Queued
// proposals not executed within the grace period are Expired.
//
// A proposal keeps the voting window, quorum and threshold in force when it
// was created. Policy setters only apply to later proposals.
package governance

import (
	"math/big"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/proxy"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/builtin/roles"
	"github.com/swipegov/sxpgov/builtin/staking"
	"github.com/swipegov/sxpgov/builtin/timelock"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

const (
	// Code is the code tag of the governance logic.
	Code = "governance"
	// Layout is the storage layout family of governance.
	Layout = "governance"
)

var (
	guardian = roles.Guardian(Layout)

	proposalCreationEvent = abi.MustParseEvent("ProposalCreation(uint256 id, address proposer, address[] targets, " +
		"uint256[] values, string[] signatures, bytes[] calldatas, uint256 startBlock, uint256 endBlock, string description)")
	voteEvent                  = abi.MustParseEvent("Vote(address voter, uint256 proposalId, bool support, uint256 votes)")
	proposalCancelEvent        = abi.MustParseEvent("ProposalCancel(uint256 id)")
	proposalQueueEvent         = abi.MustParseEvent("ProposalQueue(uint256 id, uint256 eta)")
	proposalExecutionEvent     = abi.MustParseEvent("ProposalExecution(uint256 id)")
	votingDelayEvent           = abi.MustParseEvent("VotingDelayUpdate(uint256 oldValue, uint256 newValue)")
	votingPeriodEvent          = abi.MustParseEvent("VotingPeriodUpdate(uint256 oldValue, uint256 newValue)")
	quorumVotesEvent           = abi.MustParseEvent("QuorumVotesUpdate(uint256 oldValue, uint256 newValue)")
	proposalThresholdEvent     = abi.MustParseEvent("ProposalThresholdUpdate(uint256 oldValue, uint256 newValue)")
	proposalMaxOperationsEvent = abi.MustParseEvent("ProposalMaxOperationsUpdate(uint256 oldValue, uint256 newValue)")
)

// Contract is the governance logic.
var Contract = newContract()

func newContract() *xenv.Contract {
	c := xenv.NewContract(Code, Layout, 1)
	guardian.Register(c, "guardian", "authorizedNewGuardian", "authorizeGuardianshipTransfer", "assumeGuardianship")

	c.Register("initialize(address timelock, address staking, address guardian)", func(env *xenv.Environment) ([]any, error) {
		var args struct {
			Timelock xenv.ABIAddress
			Staking  xenv.ABIAddress
			Guardian xenv.ABIAddress
		}
		if err := env.ParseArgs(&args); err != nil {
			return nil, err
		}
		if err := proxy.Initialize(env, Layout); err != nil {
			return nil, err
		}
		e := engine(env)
		e.timelock().Set(xenv.Address(args.Timelock))
		e.staking().Set(xenv.Address(args.Staking))
		guardian.Set(e.ctx, xenv.Address(args.Guardian))
		e.votingDelay().Set(sxp.DefaultVotingDelay)
		e.votingPeriod().Set(sxp.DefaultVotingPeriod)
		e.proposalMaxOperations().Set(sxp.DefaultProposalMaxOperations)
		if err := e.quorumVotes().Set(sxp.DefaultQuorumVotes); err != nil {
			return nil, err
		}
		return nil, e.proposalThreshold().Set(sxp.DefaultProposalThreshold)
	})

	c.Register("propose(address[] targets, uint256[] values, string[] signatures, bytes[] calldatas, string description) returns (uint256)",
		propose)
	c.Register("castVote(uint256 proposalId, bool support)", castVote)
	c.Register("queue(uint256 proposalId)", queue)
	c.Register("execute(uint256 proposalId)", execute)
	c.Register("cancel(uint256 proposalId)", cancel)

	registerViews(c)
	registerSetters(c)
	return c
}

func propose(env *xenv.Environment) ([]any, error) {
	var args struct {
		Targets     []xenv.ABIAddress
		Values      []*big.Int
		Signatures  []string
		Calldatas   [][]byte
		Description string
	}
	if err := env.ParseArgs(&args); err != nil {
		return nil, err
	}

	e := engine(env)
	policy, err := e.Policy()
	if err != nil {
		return nil, err
	}
	n := len(args.Targets)
	if n != len(args.Values) || n != len(args.Signatures) || n != len(args.Calldatas) {
		return nil, reverts.NewValidation("proposal function information arity mismatch")
	}
	if n == 0 {
		return nil, reverts.NewValidation("must provide actions")
	}
	if uint64(n) > policy.ProposalMaxOperations {
		return nil, reverts.NewValidation("too many actions, at most %d", policy.ProposalMaxOperations)
	}

	proposer := env.Caller()
	block := env.BlockContext()

	latest, err := e.LatestProposalID(proposer)
	if err != nil {
		return nil, err
	}
	if latest != 0 {
		prev, _, err := e.Proposal(latest)
		if err != nil {
			return nil, err
		}
		if state := prev.StateAt(block.Number, block.Time); state == Pending || state == Active {
			return nil, reverts.NewState("proposer already has a %v proposal", state)
		}
	}

	if policy.ProposalThreshold.Sign() > 0 {
		stake := new(big.Int)
		if block.Number > 0 {
			if stake, err = priorStake(env, e, proposer, block.Number-1); err != nil {
				return nil, err
			}
		}
		if stake.Cmp(policy.ProposalThreshold) < 0 {
			return nil, reverts.NewAuthorization("proposer stake %v below proposal threshold %v", stake, policy.ProposalThreshold)
		}
	}

	id, err := e.proposalCount().Increment()
	if err != nil {
		return nil, err
	}
	targets := make([]sxp.Address, n)
	for i, t := range args.Targets {
		targets[i] = xenv.Address(t)
	}
	p := &Proposal{
		ID:           id,
		Proposer:     proposer,
		Targets:      targets,
		Values:       args.Values,
		Signatures:   args.Signatures,
		Calldatas:    args.Calldatas,
		StartBlock:   block.Number + policy.VotingDelay,
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
		QuorumVotes:  policy.QuorumVotes,
		Threshold:    policy.ProposalThreshold,
	}
	p.EndBlock = p.StartBlock + policy.VotingPeriod
	if err := e.saveProposal(p); err != nil {
		return nil, err
	}
	if err := e.latestProposalIDs().Set(proposer, id); err != nil {
		return nil, err
	}

	if err := env.Log(proposalCreationEvent,
		new(big.Int).SetUint64(id), proposer, targets, args.Values, args.Signatures, args.Calldatas,
		new(big.Int).SetUint64(p.StartBlock), new(big.Int).SetUint64(p.EndBlock), args.Description,
	); err != nil {
		return nil, err
	}
	return []any{new(big.Int).SetUint64(id)}, nil
}

func castVote(env *xenv.Environment) ([]any, error) {
	var args struct {
		ProposalID *big.Int `abi:"proposalId"`
		Support    bool     `abi:"support"`
	}
	if err := env.ParseArgs(&args); err != nil {
		return nil, err
	}
	e := engine(env)
	p, err := loadInState(env, e, args.ProposalID, Active)
	if err != nil {
		return nil, err
	}

	voter := env.Caller()
	receipt, err := e.Receipt(p.ID, voter)
	if err != nil {
		return nil, err
	}
	if receipt.HasVoted {
		return nil, reverts.NewInvariant("voter already voted")
	}

	votes, err := priorStake(env, e, voter, p.StartBlock)
	if err != nil {
		return nil, err
	}
	if args.Support {
		p.ForVotes = new(big.Int).Add(p.ForVotes, votes)
	} else {
		p.AgainstVotes = new(big.Int).Add(p.AgainstVotes, votes)
	}
	if err := e.saveProposal(p); err != nil {
		return nil, err
	}
	if err := e.receipts().Set(receiptKey{p.ID, voter}, Receipt{HasVoted: true, Support: args.Support, Votes: votes}); err != nil {
		return nil, err
	}
	return nil, env.Log(voteEvent, voter, args.ProposalID, args.Support, votes)
}

func queue(env *xenv.Environment) ([]any, error) {
	var id *big.Int
	if err := env.ParseArgs(&id); err != nil {
		return nil, err
	}
	e := engine(env)
	p, err := loadInState(env, e, id, Succeeded)
	if err != nil {
		return nil, err
	}
	tl, err := e.timelock().Get()
	if err != nil {
		return nil, err
	}

	var delay *big.Int
	if err := env.CallInto(tl, timelock.DelayMethod, &delay); err != nil {
		return nil, err
	}
	eta := new(big.Int).Add(new(big.Int).SetUint64(env.BlockContext().Time), delay)
	if !eta.IsUint64() {
		return nil, reverts.NewInvariant("eta overflow")
	}

	for i := range p.Targets {
		if _, err := env.Call(tl, nil, timelock.QueueTransactionMethod,
			p.Targets[i], p.Values[i], p.Signatures[i], p.Calldatas[i], eta); err != nil {
			return nil, err
		}
	}
	p.Eta = eta.Uint64()
	if err := e.saveProposal(p); err != nil {
		return nil, err
	}
	return nil, env.Log(proposalQueueEvent, id, eta)
}

func execute(env *xenv.Environment) ([]any, error) {
	var id *big.Int
	if err := env.ParseArgs(&id); err != nil {
		return nil, err
	}
	e := engine(env)
	p, err := loadInState(env, e, id, Queued)
	if err != nil {
		return nil, err
	}
	tl, err := e.timelock().Get()
	if err != nil {
		return nil, err
	}

	eta := new(big.Int).SetUint64(p.Eta)
	for i := range p.Targets {
		if _, err := env.Call(tl, p.Values[i], timelock.ExecuteTransactionMethod,
			p.Targets[i], p.Values[i], p.Signatures[i], p.Calldatas[i], eta); err != nil {
			return nil, err
		}
	}
	p.Executed = true
	if err := e.saveProposal(p); err != nil {
		return nil, err
	}
	return nil, env.Log(proposalExecutionEvent, id)
}

func cancel(env *xenv.Environment) ([]any, error) {
	var id *big.Int
	if err := env.ParseArgs(&id); err != nil {
		return nil, err
	}
	e := engine(env)
	p, state, err := load(env, e, id)
	if err != nil {
		return nil, err
	}
	switch state {
	case Pending, Active, Succeeded, Queued:
	default:
		return nil, reverts.NewState("cannot cancel %v proposal", state)
	}
	if env.Caller() != p.Proposer {
		ok, err := guardian.Has(e.ctx, env.Caller())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, reverts.NewAuthorization("caller is neither the proposer nor the guardian")
		}
	}

	p.Canceled = true
	if err := e.saveProposal(p); err != nil {
		return nil, err
	}
	if p.Eta != 0 {
		tl, err := e.timelock().Get()
		if err != nil {
			return nil, err
		}
		eta := new(big.Int).SetUint64(p.Eta)
		for i := range p.Targets {
			if _, err := env.Call(tl, nil, timelock.CancelTransactionMethod,
				p.Targets[i], p.Values[i], p.Signatures[i], p.Calldatas[i], eta); err != nil {
				return nil, err
			}
		}
	}
	return nil, env.Log(proposalCancelEvent, id)
}

// load returns the proposal id and its current state.
func load(env *xenv.Environment, e *Engine, id *big.Int) (*Proposal, State, error) {
	if !id.IsUint64() {
		return nil, 0, reverts.NewValidation("invalid proposal id %v", id)
	}
	p, ok, err := e.Proposal(id.Uint64())
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, reverts.NewValidation("invalid proposal id %v", id)
	}
	block := env.BlockContext()
	return p, p.StateAt(block.Number, block.Time), nil
}

func loadInState(env *xenv.Environment, e *Engine, id *big.Int, want State) (*Proposal, error) {
	p, state, err := load(env, e, id)
	if err != nil {
		return nil, err
	}
	if state != want {
		return nil, reverts.NewState("proposal %v is %v, not %v", id, state, want)
	}
	return p, nil
}

func priorStake(env *xenv.Environment, e *Engine, account sxp.Address, block uint64) (*big.Int, error) {
	ledger, err := e.staking().Get()
	if err != nil {
		return nil, err
	}
	var amount *big.Int
	if err := env.CallInto(ledger, staking.GetPriorStakedAmountMethod, &amount, account, new(big.Int).SetUint64(block)); err != nil {
		return nil, err
	}
	return amount, nil
}
