// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package supervisor

import (
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// ErrNilService is returned when a factory yields no service for a leaf.
var ErrNilService = errors.New("service factory returned nil service")

// ServiceFactory turns a planned leaf into a runnable service.
type ServiceFactory interface {
	NewService(leaf Leaf) (suture.Service, error)
}

// ServiceFactoryFunc adapts a function to ServiceFactory.
type ServiceFactoryFunc func(leaf Leaf) (suture.Service, error)

// NewService implements ServiceFactory.
func (f ServiceFactoryFunc) NewService(leaf Leaf) (suture.Service, error) {
	return f(leaf)
}

// Build creates one service per leaf and adds it to the leaf's branch. It
// stops at the first factory error; nothing is started until the tree is
// served.
func Build(tree *SupervisorTree, topo Topology, factory ServiceFactory) (map[string]suture.ServiceToken, error) {
	tokens := make(map[string]suture.ServiceToken, len(topo.Leaves))
	for _, leaf := range topo.Leaves {
		svc, err := factory.NewService(leaf)
		if err != nil {
			return nil, fmt.Errorf("create %s service: %w", leaf.Name, err)
		}
		if svc == nil {
			return nil, fmt.Errorf("create %s service: %w", leaf.Name, ErrNilService)
		}
		token, err := tree.Add(leaf.Branch, svc)
		if err != nil {
			return nil, fmt.Errorf("add %s service: %w", leaf.Name, err)
		}
		tokens[leaf.Name] = token
	}
	return tokens, nil
}
