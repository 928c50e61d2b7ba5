// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package rpc

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/validation"
)

type handler struct {
	svc     *Service
	surface Surface
}

func (h *handler) serveRPC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{Fault: &Fault{Code: FaultParse, Message: "malformed request"}})
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{Fault: &Fault{Code: FaultInvalidRequest, Message: err.Error()}})
		return
	}

	result, err := h.svc.Call(r.Context(), h.surface, req.Method, req.Params)
	if err != nil {
		fault := toFault(err)
		if fault.Code == FaultInternal {
			logging.Error().Err(err).Str("method", req.Method).Msg("RPC method failed")
		}
		writeJSON(w, http.StatusOK, &Response{Fault: fault})
		return
	}
	writeJSON(w, http.StatusOK, &Response{Result: result})
}

type healthResponse struct {
	Status  string   `json:"status"`
	Surface string   `json:"surface"`
	Methods []string `json:"methods"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &healthResponse{
		Status:  "ok",
		Surface: h.surface.String(),
		Methods: h.svc.Methods(h.surface),
	})
}

// writeJSON sends a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}
