// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/operion-odata/pkg/nodes/odata"
	"github.com/dukex/operion-odata/pkg/registry"
)

// NewRegistry registers the built-in nodes, then any node plugins found under pluginsPath.
// An empty pluginsPath skips plugin loading.
func NewRegistry(ctx context.Context, log *slog.Logger, pluginsPath string, opts ...odata.FactoryOption) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes(opts...)

	if pluginsPath == "" {
		return reg, nil
	}

	plugins, err := reg.LoadNodePlugins(ctx, pluginsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load node plugins: %w", err)
	}

	for _, plugin := range plugins {
		reg.RegisterNode(plugin)
	}

	return reg, nil
}
