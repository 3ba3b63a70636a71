// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

type Checkpoint struct {
	Block   uint64                `json:"block"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type Account struct {
	Address                sxp.Address           `json:"address"`
	Staked                 *math.HexOrDecimal256 `json:"staked"`
	Withdrawable           *math.HexOrDecimal256 `json:"withdrawable"`
	MinimumWithdrawableAge uint64                `json:"minimumWithdrawableAge"`
	Checkpoints            []Checkpoint          `json:"checkpoints"`
}

type Summary struct {
	TotalStaked *math.HexOrDecimal256 `json:"totalStaked"`
	Block       uint64                `json:"block"`
}

type Prior struct {
	Address sxp.Address           `json:"address"`
	Block   uint64                `json:"block"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type Staking struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Staking {
	return &Staking{rt}
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func (s *Staking) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	var summary Summary
	err := s.rt.View(func(st *state.State, head xenv.BlockContext) error {
		total, err := builtin.Ledger(st).TotalStaked()
		if err != nil {
			return err
		}
		summary = Summary{amount(total), head.Number}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &summary)
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := restutil.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}

	acc := Account{Address: addr}
	err = s.rt.View(func(st *state.State, head xenv.BlockContext) error {
		ledger := builtin.Ledger(st)
		staked, err := ledger.StakedAmount(addr)
		if err != nil {
			return err
		}
		age, err := ledger.MinimumWithdrawableAge()
		if err != nil {
			return err
		}
		withdrawable, err := ledger.WithdrawableAmount(addr, head.Number, age)
		if err != nil {
			return err
		}
		checkpoints, err := ledger.Checkpoints(addr)
		if err != nil {
			return err
		}

		acc.Staked = amount(staked)
		acc.Withdrawable = amount(withdrawable)
		acc.MinimumWithdrawableAge = age
		acc.Checkpoints = make([]Checkpoint, 0, len(checkpoints))
		for _, cp := range checkpoints {
			acc.Checkpoints = append(acc.Checkpoints, Checkpoint{cp.Block, amount(cp.Balance)})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &acc)
}

func (s *Staking) handleGetPrior(w http.ResponseWriter, req *http.Request) error {
	addr, err := restutil.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	block, err := restutil.ParseUint("block", req.URL.Query().Get("block"), 0)
	if err != nil {
		return err
	}

	prior := Prior{Address: addr, Block: block}
	err = s.rt.View(func(st *state.State, head xenv.BlockContext) error {
		if block >= head.Number {
			return restutil.BadRequest(errors.Errorf("block: %v not yet determined", block))
		}
		balance, err := builtin.Ledger(st).BalanceAt(addr, block)
		if err != nil {
			return err
		}
		prior.Amount = amount(balance)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &prior)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /staking").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetSummary))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/{address}/prior").
		Methods(http.MethodGet).
		Name("GET /staking/{address}/prior").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPrior))
}
