// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"math/big"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

func registerViews(c *xenv.Contract) {
	c.Register("state(uint256 proposalId) returns (uint8)", func(env *xenv.Environment) ([]any, error) {
		var id *big.Int
		if err := env.ParseArgs(&id); err != nil {
			return nil, err
		}
		_, state, err := load(env, engine(env), id)
		if err != nil {
			return nil, err
		}
		return []any{uint8(state)}, nil
	})

	c.Register("getProposal(uint256 proposalId) returns (uint256 id, address proposer, uint256 startBlock, uint256 endBlock, "+
		"uint256 forVotes, uint256 againstVotes, bool canceled, bool executed, uint256 eta)", func(env *xenv.Environment) ([]any, error) {
		var id *big.Int
		if err := env.ParseArgs(&id); err != nil {
			return nil, err
		}
		p, _, err := load(env, engine(env), id)
		if err != nil {
			return nil, err
		}
		return []any{
			new(big.Int).SetUint64(p.ID),
			p.Proposer,
			new(big.Int).SetUint64(p.StartBlock),
			new(big.Int).SetUint64(p.EndBlock),
			p.ForVotes,
			p.AgainstVotes,
			p.Canceled,
			p.Executed,
			new(big.Int).SetUint64(p.Eta),
		}, nil
	})

	c.Register("getActions(uint256 proposalId) returns (address[] targets, uint256[] values, string[] signatures, bytes[] calldatas)",
		func(env *xenv.Environment) ([]any, error) {
			var id *big.Int
			if err := env.ParseArgs(&id); err != nil {
				return nil, err
			}
			p, _, err := load(env, engine(env), id)
			if err != nil {
				return nil, err
			}
			return []any{p.Targets, p.Values, p.Signatures, p.Calldatas}, nil
		})

	c.Register("getReceipt(uint256 proposalId, address voter) returns (bool hasVoted, bool support, uint256 votes)",
		func(env *xenv.Environment) ([]any, error) {
			var args struct {
				ProposalID *big.Int        `abi:"proposalId"`
				Voter      xenv.ABIAddress `abi:"voter"`
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			if !args.ProposalID.IsUint64() {
				return nil, reverts.NewValidation("invalid proposal id %v", args.ProposalID)
			}
			r, err := engine(env).Receipt(args.ProposalID.Uint64(), xenv.Address(args.Voter))
			if err != nil {
				return nil, err
			}
			return []any{r.HasVoted, r.Support, r.Votes}, nil
		})

	c.Register("latestProposalIds(address proposer) returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		var proposer xenv.ABIAddress
		if err := env.ParseArgs(&proposer); err != nil {
			return nil, err
		}
		id, err := engine(env).LatestProposalID(xenv.Address(proposer))
		return []any{new(big.Int).SetUint64(id)}, err
	})
	c.Register("proposalCount() returns (uint256)", uint64View(func(e *Engine) (uint64, error) { return e.proposalCount().Get() }))
	c.Register("votingDelay() returns (uint256)", uint64View(func(e *Engine) (uint64, error) { return e.votingDelay().Get() }))
	c.Register("votingPeriod() returns (uint256)", uint64View(func(e *Engine) (uint64, error) { return e.votingPeriod().Get() }))
	c.Register("proposalMaxOperations() returns (uint256)", uint64View(func(e *Engine) (uint64, error) {
		return e.proposalMaxOperations().Get()
	}))
	c.Register("quorumVotes() returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		v, err := engine(env).quorumVotes().Get()
		return []any{v}, err
	})
	c.Register("proposalThreshold() returns (uint256)", func(env *xenv.Environment) ([]any, error) {
		v, err := engine(env).proposalThreshold().Get()
		return []any{v}, err
	})
	c.Register("timelock() returns (address)", func(env *xenv.Environment) ([]any, error) {
		v, err := engine(env).timelock().Get()
		return []any{v}, err
	})
	c.Register("staking() returns (address)", func(env *xenv.Environment) ([]any, error) {
		v, err := engine(env).staking().Get()
		return []any{v}, err
	})
}

func uint64View(get func(*Engine) (uint64, error)) xenv.Handler {
	return func(env *xenv.Environment) ([]any, error) {
		v, err := get(engine(env))
		return []any{new(big.Int).SetUint64(v)}, err
	}
}

type uint64Var interface {
	Get() (uint64, error)
	Set(uint64)
}

type uint256Var interface {
	Get() (*big.Int, error)
	Set(*big.Int) error
}

// uint64Setter registers a guardian setter for a block or count parameter within [lo, hi].
func uint64Setter(c *xenv.Contract, decl string, ev *abi.Event, lo, hi uint64, slot func(*Engine) uint64Var) {
	c.Register(decl, func(env *xenv.Environment) ([]any, error) {
		var value *big.Int
		if err := env.ParseArgs(&value); err != nil {
			return nil, err
		}
		if err := guardian.Require(env); err != nil {
			return nil, err
		}
		if !value.IsUint64() || value.Uint64() < lo || value.Uint64() > hi {
			return nil, reverts.NewValidation("%v out of range [%d, %d]", value, lo, hi)
		}
		v := slot(engine(env))
		old, err := v.Get()
		if err != nil {
			return nil, err
		}
		v.Set(value.Uint64())
		return nil, env.Log(ev, new(big.Int).SetUint64(old), value)
	})
}

// uint256Setter registers a guardian setter for a token amount parameter.
func uint256Setter(c *xenv.Contract, decl string, ev *abi.Event, slot func(*Engine) uint256Var) {
	c.Register(decl, func(env *xenv.Environment) ([]any, error) {
		var value *big.Int
		if err := env.ParseArgs(&value); err != nil {
			return nil, err
		}
		if err := guardian.Require(env); err != nil {
			return nil, err
		}
		v := slot(engine(env))
		old, err := v.Get()
		if err != nil {
			return nil, err
		}
		if err := v.Set(value); err != nil {
			return nil, err
		}
		return nil, env.Log(ev, old, value)
	})
}

func registerSetters(c *xenv.Contract) {
	// keeps start and end blocks far from overflow
	const maxBlocks = 1 << 32

	uint64Setter(c, "setVotingDelay(uint256 votingDelay)", votingDelayEvent, 0, maxBlocks,
		func(e *Engine) uint64Var { return e.votingDelay() })
	uint64Setter(c, "setVotingPeriod(uint256 votingPeriod)", votingPeriodEvent, 1, maxBlocks,
		func(e *Engine) uint64Var { return e.votingPeriod() })
	uint64Setter(c, "setProposalMaxOperations(uint256 proposalMaxOperations)", proposalMaxOperationsEvent,
		1, sxp.MaxProposalOperations,
		func(e *Engine) uint64Var { return e.proposalMaxOperations() })
	uint256Setter(c, "setQuorumVotes(uint256 quorumVotes)", quorumVotesEvent,
		func(e *Engine) uint256Var { return e.quorumVotes() })
	uint256Setter(c, "setProposalThreshold(uint256 proposalThreshold)", proposalThresholdEvent,
		func(e *Engine) uint256Var { return e.proposalThreshold() })
}
