// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Toggle is a switch in the classic settings file style: only an explicit
// off value disables it. "0", "false", "no" and "off" (any case) are off;
// any other string, including "2" or "yes", is on. Numbers are on unless
// zero.
type Toggle bool

var toggleType = reflect.TypeOf(Toggle(false))

// ParseToggle converts a raw configuration value to a Toggle.
func ParseToggle(data interface{}) (Toggle, error) {
	if data == nil {
		return false, nil
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Bool:
		return Toggle(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	case reflect.String:
		switch strings.ToLower(strings.TrimSpace(v.String())) {
		case "0", "false", "no", "off":
			return false, nil
		}
		return true, nil
	default:
		return false, fmt.Errorf("cannot use %T as an on/off value", data)
	}
}

// toggleHookFunc decodes any field of type Toggle with ParseToggle.
func toggleHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != toggleType {
			return data, nil
		}
		return ParseToggle(data)
	}
}
