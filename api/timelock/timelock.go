// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package timelock

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/builtin"
	"github.com/swipegov/sxpgov/runtime"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
	"github.com/swipegov/sxpgov/xenv"
)

// Settings are the administrative parameters of the timelock.
type Settings struct {
	Address      sxp.Address  `json:"address"`
	Admin        sxp.Address  `json:"admin"`
	PendingAdmin *sxp.Address `json:"pendingAdmin"`
	Delay        uint64       `json:"delay"`
	GracePeriod  uint64       `json:"gracePeriod"`
}

// Queued tells whether a transaction hash waits in the queue.
type Queued struct {
	Hash   sxp.Bytes32 `json:"hash"`
	Queued bool        `json:"queued"`
}

type Timelock struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Timelock {
	return &Timelock{rt}
}

func (t *Timelock) handleGetSettings(w http.ResponseWriter, _ *http.Request) error {
	settings := Settings{
		Address:     builtin.TimelockProxy.Address,
		GracePeriod: sxp.GracePeriod,
	}
	err := t.rt.View(func(st *state.State, _ xenv.BlockContext) (err error) {
		queue := builtin.Queue(st)
		if settings.Admin, err = queue.Admin(); err != nil {
			return err
		}
		pending, err := queue.PendingAdmin()
		if err != nil {
			return err
		}
		if !pending.IsZero() {
			settings.PendingAdmin = &pending
		}
		settings.Delay, err = queue.Delay()
		return err
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &settings)
}

func (t *Timelock) handleGetQueued(w http.ResponseWriter, req *http.Request) error {
	hash, err := restutil.ParseBytes32("hash", mux.Vars(req)["hash"])
	if err != nil {
		return err
	}
	result := Queued{Hash: hash}
	err = t.rt.View(func(st *state.State, _ xenv.BlockContext) (err error) {
		result.Queued, err = builtin.Queue(st).IsQueued(hash)
		return err
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &result)
}

func (t *Timelock) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /timelock").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetSettings))
	sub.Path("/queued/{hash}").
		Methods(http.MethodGet).
		Name("GET /timelock/queued/{hash}").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetQueued))
}
