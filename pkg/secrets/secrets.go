// Package secrets resolves credential values given as prefixed references such as
// "env:ODATA_PASSWORD" or "file:/run/secrets/odata".
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Plugin loads the secret identified by id.
type Plugin interface {
	Prefix() string
	Load(ctx context.Context, id string) (string, error)
}

var (
	mu      sync.RWMutex
	plugins = map[string]Plugin{}
)

// Register makes p available under its prefix.
func Register(p Plugin) {
	mu.Lock()
	defer mu.Unlock()

	plugins[p.Prefix()] = p
}

func lookup(prefix string) (Plugin, bool) {
	mu.RLock()
	defer mu.RUnlock()

	p, ok := plugins[prefix]

	return p, ok
}

// Resolve returns the secret referenced by value. Values without a registered prefix are
// returned unchanged.
func Resolve(ctx context.Context, value string) (string, error) {
	prefix, id, ok := strings.Cut(value, ":")
	if !ok {
		return value, nil
	}

	p, ok := lookup(prefix)
	if !ok {
		return value, nil
	}

	secret, err := p.Load(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load %s secret: %w", prefix, err)
	}

	return secret, nil
}

type envPlugin struct{}

func (envPlugin) Prefix() string { return "env" }

func (envPlugin) Load(_ context.Context, id string) (string, error) {
	v, ok := os.LookupEnv(id)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", id)
	}

	return v, nil
}

type filePlugin struct{}

func (filePlugin) Prefix() string { return "file" }

func (filePlugin) Load(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(string(b), "\r\n"), nil
}

func init() {
	Register(envPlugin{})
	Register(filePlugin{})
}
