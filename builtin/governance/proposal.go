// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"math/big"

	"github.com/swipegov/sxpgov/builtin/solidity"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// State is the lifecycle state of a proposal.
type State uint8

const (
	Pending State = iota
	Active
	Canceled
	Defeated
	Succeeded
	Queued
	Expired
	Executed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Canceled:
		return "canceled"
	case Defeated:
		return "defeated"
	case Succeeded:
		return "succeeded"
	case Queued:
		return "queued"
	case Expired:
		return "expired"
	case Executed:
		return "executed"
	}
	return "unknown"
}

// Proposal is a batch of operations put to vote.
type Proposal struct {
	ID           uint64
	Proposer     sxp.Address
	Targets      []sxp.Address
	Values       []*big.Int
	Signatures   []string
	Calldatas    [][]byte
	StartBlock   uint64
	EndBlock     uint64
	ForVotes     *big.Int
	AgainstVotes *big.Int
	// QuorumVotes and Threshold are the policy in force at creation.
	QuorumVotes *big.Int
	Threshold   *big.Int
	Canceled    bool
	Executed    bool
	// Eta is zero until the proposal is queued.
	Eta uint64
}

// Receipt is the vote of a voter on a proposal.
type Receipt struct {
	HasVoted bool
	Support  bool
	Votes    *big.Int
}

// Policy holds the parameters new proposals are created and judged with.
type Policy struct {
	VotingDelay           uint64
	VotingPeriod          uint64
	QuorumVotes           *big.Int
	ProposalThreshold     *big.Int
	ProposalMaxOperations uint64
}

var (
	timelockSlot              = solidity.Slot("governance.timelock")
	stakingSlot               = solidity.Slot("governance.staking")
	votingDelaySlot           = solidity.Slot("governance.votingDelay")
	votingPeriodSlot          = solidity.Slot("governance.votingPeriod")
	quorumVotesSlot           = solidity.Slot("governance.quorumVotes")
	proposalThresholdSlot     = solidity.Slot("governance.proposalThreshold")
	proposalMaxOperationsSlot = solidity.Slot("governance.proposalMaxOperations")
	proposalCountSlot         = solidity.Slot("governance.proposalCount")
	proposalsSlot             = solidity.Slot("governance.proposals")
	receiptsSlot              = solidity.Slot("governance.receipts")
	latestProposalIDsSlot     = solidity.Slot("governance.latestProposalIds")
)

type receiptKey struct {
	id    uint64
	voter sxp.Address
}

func (k receiptKey) Bytes() []byte {
	return append(solidity.Uint64Key(k.id).Bytes(), k.voter.Bytes()...)
}

// Engine is the governance storage at an address.
type Engine struct {
	ctx *solidity.Context
}

func New(addr sxp.Address, st *state.State) *Engine {
	return &Engine{solidity.NewContext(addr, st)}
}

func engine(env *xenv.Environment) *Engine {
	return New(env.Address(), env.State())
}

func (e *Engine) timelock() *solidity.Address  { return solidity.NewAddress(e.ctx, timelockSlot) }
func (e *Engine) staking() *solidity.Address   { return solidity.NewAddress(e.ctx, stakingSlot) }
func (e *Engine) votingDelay() *solidity.Uint64 { return solidity.NewUint64(e.ctx, votingDelaySlot) }
func (e *Engine) votingPeriod() *solidity.Uint64 {
	return solidity.NewUint64(e.ctx, votingPeriodSlot)
}
func (e *Engine) quorumVotes() *solidity.Uint256 { return solidity.NewUint256(e.ctx, quorumVotesSlot) }
func (e *Engine) proposalThreshold() *solidity.Uint256 {
	return solidity.NewUint256(e.ctx, proposalThresholdSlot)
}
func (e *Engine) proposalMaxOperations() *solidity.Uint64 {
	return solidity.NewUint64(e.ctx, proposalMaxOperationsSlot)
}
func (e *Engine) proposalCount() *solidity.Uint64 { return solidity.NewUint64(e.ctx, proposalCountSlot) }

func (e *Engine) proposals() *solidity.Mapping[solidity.Uint64Key, Proposal] {
	return solidity.NewMapping[solidity.Uint64Key, Proposal](e.ctx, proposalsSlot)
}

func (e *Engine) receipts() *solidity.Mapping[receiptKey, Receipt] {
	return solidity.NewMapping[receiptKey, Receipt](e.ctx, receiptsSlot)
}

func (e *Engine) latestProposalIDs() *solidity.Mapping[sxp.Address, uint64] {
	return solidity.NewMapping[sxp.Address, uint64](e.ctx, latestProposalIDsSlot)
}

// Policy returns the current proposal policy.
func (e *Engine) Policy() (*Policy, error) {
	var (
		p   Policy
		err error
	)
	if p.VotingDelay, err = e.votingDelay().Get(); err != nil {
		return nil, err
	}
	if p.VotingPeriod, err = e.votingPeriod().Get(); err != nil {
		return nil, err
	}
	if p.QuorumVotes, err = e.quorumVotes().Get(); err != nil {
		return nil, err
	}
	if p.ProposalThreshold, err = e.proposalThreshold().Get(); err != nil {
		return nil, err
	}
	if p.ProposalMaxOperations, err = e.proposalMaxOperations().Get(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProposalCount returns the id of the latest proposal.
func (e *Engine) ProposalCount() (uint64, error) {
	return e.proposalCount().Get()
}

// Proposal returns the proposal with id and whether it exists.
func (e *Engine) Proposal(id uint64) (*Proposal, bool, error) {
	count, err := e.proposalCount().Get()
	if err != nil {
		return nil, false, err
	}
	if id == 0 || id > count {
		return nil, false, nil
	}
	p, err := e.proposals().Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, false, err
	}
	if p.ForVotes == nil {
		p.ForVotes = new(big.Int)
	}
	if p.AgainstVotes == nil {
		p.AgainstVotes = new(big.Int)
	}
	if p.QuorumVotes == nil {
		p.QuorumVotes = new(big.Int)
	}
	if p.Threshold == nil {
		p.Threshold = new(big.Int)
	}
	return &p, true, nil
}

func (e *Engine) saveProposal(p *Proposal) error {
	return e.proposals().Set(solidity.Uint64Key(p.ID), *p)
}

// Receipt returns the vote of voter on proposal id.
func (e *Engine) Receipt(id uint64, voter sxp.Address) (*Receipt, error) {
	r, err := e.receipts().Get(receiptKey{id, voter})
	if err != nil {
		return nil, err
	}
	if r.Votes == nil {
		r.Votes = new(big.Int)
	}
	return &r, nil
}

// LatestProposalID returns the id of the latest proposal of proposer, zero if none.
func (e *Engine) LatestProposalID(proposer sxp.Address) (uint64, error) {
	return e.latestProposalIDs().Get(proposer)
}

// StateAt resolves the state of p as of block, with now the block time.
// Terminal and timelock states are checked before the vote count, so they
// never change once reached.
func (p *Proposal) StateAt(block, now uint64) State {
	switch {
	case p.Canceled:
		return Canceled
	case p.Executed:
		return Executed
	case block <= p.StartBlock:
		return Pending
	case block <= p.EndBlock:
		return Active
	case p.Eta != 0 && now > p.Eta+sxp.GracePeriod:
		return Expired
	case p.Eta != 0:
		return Queued
	case p.ForVotes.Cmp(p.AgainstVotes) <= 0 || p.ForVotes.Cmp(p.QuorumVotes) < 0:
		return Defeated
	}
	return Succeeded
}
