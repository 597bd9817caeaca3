// Package registry keeps the node factories available to the host.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/operion-odata/pkg/models"
	"github.com/dukex/operion-odata/pkg/protocol"
)

var ErrNodeNotRegistered = errors.New("node type not registered")

// PluginSymbol is the exported variable a node plugin must provide.
const PluginSymbol = "Node"

type Registry struct {
	logger        *slog.Logger
	mu            sync.RWMutex
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

// RegisterNode adds factory, replacing any factory with the same ID.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeFactories[factory.ID()] = factory
}

// GetNodeFactory returns the factory registered under nodeType.
func (r *Registry) GetNodeFactory(nodeType string) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}

// CreateNode instantiates a node of nodeType.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (models.Node, error) {
	factory, ok := r.GetNodeFactory(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNodeNotRegistered, nodeType)
	}

	return factory.Create(ctx, id, config)
}

// GetAvailableNodes returns every registered factory sorted by ID.
func (r *Registry) GetAvailableNodes() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	slices.SortFunc(factories, func(a, b protocol.NodeFactory) int {
		return strings.Compare(a.ID(), b.ID())
	})

	return factories
}

// HealthCheck reports whether at least one node type is available.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nodeFactories) == 0 {
		return "no node types registered", false
	}

	return fmt.Sprintf("%d node types registered", len(r.nodeFactories)), true
}

// LoadNodePlugins opens every "*.so" under pluginsPath/nodes and returns their factories.
// A missing directory yields no plugins.
func (r *Registry) LoadNodePlugins(ctx context.Context, pluginsPath string) ([]protocol.NodeFactory, error) {
	rootPath := filepath.Join(pluginsPath, "nodes")

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*.so")
	if err != nil {
		return nil, err
	}

	l := r.logger.With(slog.String("path", rootPath))
	l.InfoContext(ctx, "Loading node plugins", "count", len(pluginPathList))

	factories := make([]protocol.NodeFactory, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		symbol, err := plg.Lookup(PluginSymbol)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p, err)
		}

		factory, ok := symbol.(protocol.NodeFactory)
		if !ok {
			if ptr, isPtr := symbol.(*protocol.NodeFactory); isPtr {
				factory, ok = *ptr, true
			}
		}

		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s is not a node factory", p, PluginSymbol)
		}

		factories = append(factories, factory)

		l.InfoContext(ctx, "Loaded node plugin", slog.String("plugin", p), slog.String("node_type", factory.ID()))
	}

	return factories, nil
}
