// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the REST interface of a node: read access to staking,
// governance, timelock, card and event state, and submission of calls.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/swipegov/sxpgov/api/blocks"
	"github.com/swipegov/sxpgov/api/cards"
	"github.com/swipegov/sxpgov/api/events"
	"github.com/swipegov/sxpgov/api/middleware"
	"github.com/swipegov/sxpgov/api/proposals"
	"github.com/swipegov/sxpgov/api/staking"
	"github.com/swipegov/sxpgov/api/timelock"
	"github.com/swipegov/sxpgov/api/transactions"
	"github.com/swipegov/sxpgov/log"
	"github.com/swipegov/sxpgov/logdb"
	"github.com/swipegov/sxpgov/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	SkipLogs             bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	LogsLimit            uint64
}

// New return api router. logDB may be nil when SkipLogs is set.
func New(rt *runtime.Runtime, logDB *logdb.LogDB, opts Options) http.Handler {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	blocks.New(rt).
		Mount(router, "/blocks")
	staking.New(rt).
		Mount(router, "/staking")
	proposals.New(rt).
		Mount(router, "/proposals")
	timelock.New(rt).
		Mount(router, "/timelock")
	cards.New(rt).
		Mount(router, "/cards")
	transactions.New(rt).
		Mount(router, "")
	if !opts.SkipLogs && logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/events")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(handler)

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	return middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
}
