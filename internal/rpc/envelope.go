// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package rpc

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cobblerd/internal/registry"
	"github.com/tomtom215/cobblerd/internal/validation"
)

// Fault codes. The negative codes follow JSON-RPC 2.0.
const (
	FaultParse          = -32700
	FaultInvalidRequest = -32600
	FaultMethodNotFound = -32601
	FaultInvalidParams  = -32602
	FaultInternal       = -32603

	FaultReadOnly = 1
	FaultNotFound = 2
	FaultConflict = 3
)

var (
	// ErrReadOnly is returned when a write method is called on a read-only
	// endpoint.
	ErrReadOnly = errors.New("read-only endpoint")

	// ErrUnknownMethod is returned for methods that do not exist.
	ErrUnknownMethod = errors.New("unknown method")
)

// Request is the call envelope posted to /RPC2.
type Request struct {
	Method string          `json:"method" validate:"required"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response carries either a result or a fault.
type Response struct {
	Result interface{} `json:"result,omitempty"`
	Fault  *Fault      `json:"fault,omitempty"`
}

// Fault is an RPC-level error.
type Fault struct {
	Code    int                     `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.Message)
}

// toFault maps a method error onto a Fault.
func toFault(err error) *Fault {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return &Fault{Code: FaultInvalidParams, Message: verr.Error(), Fields: verr.Fields}
	case errors.Is(err, ErrReadOnly):
		return &Fault{Code: FaultReadOnly, Message: err.Error()}
	case errors.Is(err, ErrUnknownMethod):
		return &Fault{Code: FaultMethodNotFound, Message: err.Error()}
	case errors.Is(err, registry.ErrNotFound):
		return &Fault{Code: FaultNotFound, Message: err.Error()}
	case errors.Is(err, registry.ErrAddressInUse):
		return &Fault{Code: FaultConflict, Message: err.Error()}
	default:
		return &Fault{Code: FaultInternal, Message: "internal error"}
	}
}
