// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry exposes the approved-caller registry over HTTP.
// Mutations are executor gated by the engine.
package registry

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/veldlabs/veld/api/utils"
	"github.com/veldlabs/veld/node"
	"github.com/veldlabs/veld/veld"
)

// Entry is an approved caller in wire form.
type Entry struct {
	Address  veld.Address `json:"address"`
	Identity veld.Bytes32 `json:"identity"`
}

// ApproveRequest lists a new approved caller.
type ApproveRequest struct {
	Caller   veld.Address `json:"caller"`
	Address  veld.Address `json:"address"`
	Identity veld.Bytes32 `json:"identity"`
}

// RevokeRequest delists an approved caller.
type RevokeRequest struct {
	Caller  veld.Address `json:"caller"`
	Address veld.Address `json:"address"`
}

// Registry serves the approved-caller registry.
type Registry struct {
	node *node.Node
}

func New(n *node.Node) *Registry {
	return &Registry{node: n}
}

func (r *Registry) handleList(w http.ResponseWriter, _ *http.Request) error {
	approved, err := r.node.Approved()
	if err != nil {
		return err
	}
	entries := make([]*Entry, len(approved))
	for i, a := range approved {
		entries[i] = &Entry{Address: a.Address, Identity: a.Identity}
	}
	return utils.WriteJSON(w, entries)
}

func (r *Registry) handleApprove(w http.ResponseWriter, req *http.Request) error {
	var body ApproveRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := r.node.Approve(body.Caller, body.Address, body.Identity); err != nil {
		return utils.RevertError(err)
	}
	return r.handleList(w, req)
}

func (r *Registry) handleRevoke(w http.ResponseWriter, req *http.Request) error {
	var body RevokeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := r.node.Revoke(body.Caller, body.Address); err != nil {
		return utils.RevertError(err)
	}
	return r.handleList(w, req)
}

func (r *Registry) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleList))
	sub.Path("").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(r.handleApprove))
	sub.Path("/revoke").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(r.handleRevoke))
}
