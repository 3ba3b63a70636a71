// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/api/restutil"
	"github.com/swipegov/sxpgov/logdb"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	return &Events{
		db,
		logsLimit,
	}
}

// parseQuery builds a filter of a single criteria from query parameters.
func parseQuery(req *http.Request) (*EventFilter, error) {
	query := req.URL.Query()
	var (
		criteria EventCriteria
		filter   EventFilter
	)
	if s := query.Get("address"); s != "" {
		addr, err := restutil.ParseAddress("address", s)
		if err != nil {
			return nil, err
		}
		criteria.Address = &addr
	}
	if s := query.Get("origin"); s != "" {
		addr, err := restutil.ParseAddress("origin", s)
		if err != nil {
			return nil, err
		}
		criteria.TxOrigin = &addr
	}
	if s := query.Get("eventID"); s != "" {
		id, err := restutil.ParseBytes32("eventID", s)
		if err != nil {
			return nil, err
		}
		criteria.EventID = &id
	}
	criteria.Name = query.Get("name")
	if criteria != (EventCriteria{}) {
		filter.CriteriaSet = []*EventCriteria{&criteria}
	}

	if query.Has("from") || query.Has("to") || query.Has("unit") {
		filter.Range = &Range{Unit: logdb.RangeType(query.Get("unit"))}
		for name, dst := range map[string]**uint64{"from": &filter.Range.From, "to": &filter.Range.To} {
			if !query.Has(name) {
				continue
			}
			n, err := restutil.ParseUint(name, query.Get(name), 0)
			if err != nil {
				return nil, err
			}
			*dst = &n
		}
	}
	if query.Has("offset") || query.Has("limit") {
		offset, err := restutil.ParseUint("offset", query.Get("offset"), 0)
		if err != nil {
			return nil, err
		}
		limit, err := restutil.ParseUint("limit", query.Get("limit"), 0)
		if err != nil {
			return nil, err
		}
		filter.Options = &Options{Offset: offset, Limit: limit}
	}
	filter.Order = logdb.Order(query.Get("order"))
	return &filter, nil
}

func (e *Events) filter(w http.ResponseWriter, req *http.Request, ef *EventFilter) error {
	if ef.Options != nil && ef.Options.Limit > e.limit {
		return restutil.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if ef.Options != nil && ef.Options.Offset > math.MaxInt64 {
		return restutil.BadRequest(errors.Errorf("options.offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	if ef.Options == nil {
		// one more than the limit tells whether the result was truncated
		ef.Options = &Options{Limit: e.limit + 1}
	}
	filter, err := convertFilter(ef)
	if err != nil {
		return restutil.BadRequest(err)
	}
	events, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	if uint64(len(events)) > e.limit {
		return restutil.Forbidden(errors.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}
	fes := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		fes[i] = convertEvent(ev)
	}
	return restutil.WriteJSON(w, fes)
}

func (e *Events) handleQuery(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseQuery(req)
	if err != nil {
		return err
	}
	return e.filter(w, req, filter)
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	return e.filter(w, req, &filter)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleQuery))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
