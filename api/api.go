// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the HTTP surface of a node.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/veldlabs/veld/api/escrow"
	"github.com/veldlabs/veld/api/events"
	"github.com/veldlabs/veld/api/registry"
	"github.com/veldlabs/veld/api/token"
	"github.com/veldlabs/veld/eventdb"
	"github.com/veldlabs/veld/health"
	"github.com/veldlabs/veld/metrics"
	"github.com/veldlabs/veld/node"
)

// Options tune the assembled handler.
type Options struct {
	AllowedOrigins  string
	EventsLimit     uint64
	PprofOn         bool
	EnableMetrics   bool
	MetricsEndpoint bool
}

// New returns the api handler.
func New(n *node.Node, eventDB *eventdb.EventDB, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}

	router := mux.NewRouter()

	escrow.New(n).
		Mount(router, "/escrow")
	token.New(n).
		Mount(router, "/token")
	registry.New(n).
		Mount(router, "/registry")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	health.New(n).
		Mount(router, "/health")
	if opts.MetricsEndpoint {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP
}
