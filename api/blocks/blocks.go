// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/runtime"
)

// Block summarizes a block context.
type Block struct {
	Number    uint64 `json:"number"`
	Timestamp uint64 `json:"timestamp"`
}

type Blocks struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Blocks {
	return &Blocks{rt}
}

func (b *Blocks) handleGetBest(w http.ResponseWriter, _ *http.Request) error {
	best, ok := b.rt.Best()
	if !ok {
		return restutil.NotFound(errors.New("no block committed"))
	}
	return restutil.WriteJSON(w, &Block{best.Number, best.Time})
}

func (b *Blocks) handleGetNext(w http.ResponseWriter, _ *http.Request) error {
	head := b.rt.Head()
	return restutil.WriteJSON(w, &Block{head.Number, head.Time})
}

func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/best").
		Methods(http.MethodGet).
		Name("GET /blocks/best").
		HandlerFunc(restutil.WrapHandlerFunc(b.handleGetBest))
	sub.Path("/next").
		Methods(http.MethodGet).
		Name("GET /blocks/next").
		HandlerFunc(restutil.WrapHandlerFunc(b.handleGetNext))
}
