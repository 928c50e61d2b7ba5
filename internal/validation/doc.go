// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

// Package validation wraps go-playground/validator v10 with a shared
// instance, koanf/json-aware field names and readable error messages.
//
// It validates both daemon configuration and RPC parameters:
//
//	type registerParams struct {
//	    Name string   `json:"name" validate:"required,identity"`
//	    IPs  []string `json:"ip_addresses" validate:"dive,ip"`
//	}
//
//	if err := validation.ValidateStruct(&p); err != nil {
//	    var verr *validation.Error
//	    errors.As(err, &verr) // verr.Fields lists each failed rule
//	}
//
// The custom "identity" rule accepts names that are safe to use as a single
// file name under the syslog directory.
package validation
