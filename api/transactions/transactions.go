// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/runtime"
)

type Transactions struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Transactions {
	return &Transactions{rt}
}

func parseClause(req *http.Request) (*Clause, error) {
	var clause Clause
	if err := restutil.ParseJSON(req.Body, &clause); err != nil {
		return nil, restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	return &clause, nil
}

// handleSendTransaction executes the clause in the block being built. A
// reverted transaction is still a successful submission and yields its receipt.
func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	clause, err := parseClause(req)
	if err != nil {
		return err
	}
	trx, method, err := clause.build()
	if err != nil {
		return restutil.BadRequest(err)
	}
	r, err := t.rt.Execute(trx)
	if err != nil {
		return err
	}
	receipt, err := convertReceipt(r, method)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, receipt)
}

func (t *Transactions) handleCall(w http.ResponseWriter, req *http.Request) error {
	clause, err := parseClause(req)
	if err != nil {
		return err
	}
	trx, method, err := clause.build()
	if err != nil {
		return restutil.BadRequest(err)
	}

	var result CallResult
	output, err := t.rt.Call(trx)
	if err != nil {
		kind, ok := reverts.KindOf(err)
		if !ok {
			return err
		}
		result.Reverted = true
		result.RevertKind = kind.String()
		result.Error = err.Error()
		return restutil.WriteJSON(w, &result)
	}
	result.Output = output
	if method != nil {
		if result.Decoded, err = decodeOutput(method, output); err != nil {
			return restutil.BadRequest(err)
		}
	}
	return restutil.WriteJSON(w, &result)
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/transactions").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/call").
		Methods(http.MethodPost).
		Name("POST /call").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleCall))
}
