// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cards

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/builtin"
	builtincards "github.com/swipegov/sxpgov/builtin/cards"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/xenv"
)

type Card struct {
	ID                 uint64                `json:"id"`
	Name               string                `json:"name"`
	LockUp             *math.HexOrDecimal256 `json:"lockUp"`
	LockUpTime         *math.HexOrDecimal256 `json:"lockUpTime"`
	Fee                string                `json:"fee"`
	FeeSplitPercentage string                `json:"feeSplitPercentage"`
}

func convertCard(c *builtincards.Card) *Card {
	return &Card{
		ID:                 c.ID,
		Name:               c.Name,
		LockUp:             (*math.HexOrDecimal256)(c.LockUp),
		LockUpTime:         (*math.HexOrDecimal256)(c.LockUpTime),
		Fee:                c.Fee,
		FeeSplitPercentage: c.FeeSplitPercentage,
	}
}

type Cards struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Cards {
	return &Cards{rt}
}

func (c *Cards) handleGetCards(w http.ResponseWriter, _ *http.Request) error {
	list := []*Card{}
	err := c.rt.View(func(st *state.State, _ xenv.BlockContext) error {
		all, err := builtin.Registry(st).All()
		if err != nil {
			return err
		}
		for _, card := range all {
			list = append(list, convertCard(card))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func (c *Cards) handleGetCard(w http.ResponseWriter, req *http.Request) error {
	id, err := restutil.ParseUint("id", mux.Vars(req)["id"], 0)
	if err != nil {
		return err
	}
	var card *Card
	err = c.rt.View(func(st *state.State, _ xenv.BlockContext) error {
		registry := builtin.Registry(st)
		count, err := registry.Count()
		if err != nil {
			return err
		}
		if id == 0 || id > count {
			return restutil.NotFound(errors.Errorf("card %v", id))
		}
		found, err := registry.Card(id)
		if err != nil {
			return err
		}
		card = convertCard(found)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, card)
}

func (c *Cards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /cards").
		HandlerFunc(restutil.WrapHandlerFunc(c.handleGetCards))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /cards/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(c.handleGetCard))
}
