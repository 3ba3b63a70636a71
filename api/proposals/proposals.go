// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposals

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/builtin/governance"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

type Action struct {
	Target    sxp.Address           `json:"target"`
	Value     *math.HexOrDecimal256 `json:"value"`
	Signature string                `json:"signature"`
	Calldata  hexutil.Bytes         `json:"calldata"`
}

type Proposal struct {
	ID           uint64                `json:"id"`
	Proposer     sxp.Address           `json:"proposer"`
	State        string                `json:"state"`
	StartBlock   uint64                `json:"startBlock"`
	EndBlock     uint64                `json:"endBlock"`
	Eta          uint64                `json:"eta"`
	ForVotes     *math.HexOrDecimal256 `json:"forVotes"`
	AgainstVotes *math.HexOrDecimal256 `json:"againstVotes"`
	QuorumVotes  *math.HexOrDecimal256 `json:"quorumVotes"`
	Canceled     bool                  `json:"canceled"`
	Executed     bool                  `json:"executed"`
	Actions      []Action              `json:"actions"`
}

type Receipt struct {
	HasVoted bool                  `json:"hasVoted"`
	Support  bool                  `json:"support"`
	Votes    *math.HexOrDecimal256 `json:"votes"`
}

type Overview struct {
	ProposalCount         uint64                `json:"proposalCount"`
	VotingDelay           uint64                `json:"votingDelay"`
	VotingPeriod          uint64                `json:"votingPeriod"`
	QuorumVotes           *math.HexOrDecimal256 `json:"quorumVotes"`
	ProposalThreshold     *math.HexOrDecimal256 `json:"proposalThreshold"`
	ProposalMaxOperations uint64                `json:"proposalMaxOperations"`
}

type Proposals struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Proposals {
	return &Proposals{rt}
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

func convertProposal(p *governance.Proposal, st governance.State) *Proposal {
	jp := &Proposal{
		ID:           p.ID,
		Proposer:     p.Proposer,
		State:        st.String(),
		StartBlock:   p.StartBlock,
		EndBlock:     p.EndBlock,
		Eta:          p.Eta,
		ForVotes:     amount(p.ForVotes),
		AgainstVotes: amount(p.AgainstVotes),
		QuorumVotes:  amount(p.QuorumVotes),
		Canceled:     p.Canceled,
		Executed:     p.Executed,
		Actions:      make([]Action, len(p.Targets)),
	}
	for i := range p.Targets {
		jp.Actions[i] = Action{
			Target:    p.Targets[i],
			Value:     amount(p.Values[i]),
			Signature: p.Signatures[i],
			Calldata:  p.Calldatas[i],
		}
	}
	return jp
}

func parseID(req *http.Request) (uint64, error) {
	return restutil.ParseUint("id", mux.Vars(req)["id"], 0)
}

func (p *Proposals) handleGetOverview(w http.ResponseWriter, _ *http.Request) error {
	var overview Overview
	err := p.rt.View(func(st *state.State, _ xenv.BlockContext) error {
		engine := builtin.Engine(st)
		count, err := engine.ProposalCount()
		if err != nil {
			return err
		}
		policy, err := engine.Policy()
		if err != nil {
			return err
		}
		overview = Overview{
			ProposalCount:         count,
			VotingDelay:           policy.VotingDelay,
			VotingPeriod:          policy.VotingPeriod,
			QuorumVotes:           amount(policy.QuorumVotes),
			ProposalThreshold:     amount(policy.ProposalThreshold),
			ProposalMaxOperations: policy.ProposalMaxOperations,
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &overview)
}

func (p *Proposals) handleGetProposal(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}

	var proposal *Proposal
	err = p.rt.View(func(st *state.State, head xenv.BlockContext) error {
		engine := builtin.Engine(st)
		found, ok, err := engine.Proposal(id)
		if err != nil {
			return err
		}
		if !ok {
			return restutil.NotFound(errors.Errorf("proposal %v", id))
		}
		proposal = convertProposal(found, found.StateAt(head.Number, head.Time))
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, proposal)
}

func (p *Proposals) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	voter, err := restutil.ParseAddress("voter", mux.Vars(req)["voter"])
	if err != nil {
		return err
	}

	var receipt Receipt
	err = p.rt.View(func(st *state.State, _ xenv.BlockContext) error {
		engine := builtin.Engine(st)
		_, ok, err := engine.Proposal(id)
		if err != nil {
			return err
		}
		if !ok {
			return restutil.NotFound(errors.Errorf("proposal %v", id))
		}
		r, err := engine.Receipt(id, voter)
		if err != nil {
			return err
		}
		receipt = Receipt{r.HasVoted, r.Support, amount(r.Votes)}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &receipt)
}

func (p *Proposals) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /proposals").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetOverview))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /proposals/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetProposal))
	sub.Path("/{id}/receipts/{voter}").
		Methods(http.MethodGet).
		Name("GET /proposals/{id}/receipts/{voter}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetReceipt))
}
