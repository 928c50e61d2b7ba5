// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package syslog

import (
	"strconv"
	"time"
)

// Record is one received datagram, attributed to an identity.
type Record struct {
	ReceivedAt time.Time
	Source     string
	Identity   string
	Payload    []byte
}

// Line renders the record as it is appended to the identity's log file:
//
//	<unix seconds>.0 TAB <ANSIC time> TAB <source ip> TAB <payload> LF
//
// Both time fields come from ReceivedAt so they always agree.
func (r Record) Line() []byte {
	ts := r.ReceivedAt
	line := make([]byte, 0, 64+len(r.Source)+len(r.Payload))
	line = strconv.AppendInt(line, ts.Unix(), 10)
	line = append(line, ".0\t"...)
	line = ts.AppendFormat(line, time.ANSIC)
	line = append(line, '\t')
	line = append(line, r.Source...)
	line = append(line, '\t')
	line = append(line, r.Payload...)
	line = append(line, '\n')
	return line
}
