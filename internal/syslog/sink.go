// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package syslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/cobblerd/internal/validation"
)

// Sink receives formatted log lines for an identity.
type Sink interface {
	Append(identity string, line []byte) error
}

// FileSink appends each line to <Dir>/<identity>. Files are opened, written
// and closed per line and are never rotated here; external log rotation can
// move them at any time.
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed and returns a sink writing into it.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // log dir is read by operators
		return nil, fmt.Errorf("create syslog dir %s: %w", dir, err)
	}
	return &FileSink{dir: filepath.Clean(dir)}, nil
}

// Dir returns the directory the sink writes into.
func (s *FileSink) Dir() string {
	return s.dir
}

// PathFor returns the file an identity's lines are appended to.
func (s *FileSink) PathFor(identity string) string {
	return filepath.Join(s.dir, SanitizeIdentity(identity))
}

// Append writes line to the identity's file, creating it on first use.
func (s *FileSink) Append(identity string, line []byte) error {
	path := s.PathFor(identity)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644) //nolint:gosec // path is sanitized
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// maxIdentityLen is the usual file name limit in bytes.
const maxIdentityLen = 255

var identityReplacer = strings.NewReplacer("/", "_", `\`, "_", "\x00", "_")

// SanitizeIdentity turns an identity into a single safe file name. Valid
// identities are returned unchanged.
func SanitizeIdentity(identity string) string {
	if validation.IsIdentity(identity) {
		return identity
	}
	name := identityReplacer.Replace(identity)
	if len(name) > maxIdentityLen {
		cut := maxIdentityLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
