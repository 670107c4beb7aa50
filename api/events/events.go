// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events serves the escrow event log over HTTP.
package events

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/veldlabs/veld/api/utils"
	"github.com/veldlabs/veld/eventdb"
)

// Events serves filtered readings of the event log.
type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

// New creates the handler group. limit caps the page size of a single
// query.
func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db: db, limit: limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %v", e.limit))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
	}
	events, err := e.db.Filter(&eventdb.Filter{
		Account: filter.Account,
		Kind:    filter.Kind,
		Range:   filter.Range,
		Options: filter.Options,
		Order:   filter.Order,
	})
	if err != nil {
		return err
	}
	converted := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		converted[i] = convertEvent(ev)
	}
	return utils.WriteJSON(w, converted)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
