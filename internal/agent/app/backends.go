package app

import (
	"fmt"
	"sort"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/loopback"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/adapter/outbound/memory"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/config"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
)

// BackendFactory builds a Backend for this node.
type BackendFactory func(cfg config.BackendConfig, hostname string, waiter port.ReleaseWaiter) (port.Backend, error)

var builtinBackends = map[string]BackendFactory{
	config.BackendMemory: func(_ config.BackendConfig, hostname string, waiter port.ReleaseWaiter) (port.Backend, error) {
		return memory.NewBackend(hostname, waiter), nil
	},
	config.BackendLoopback: func(cfg config.BackendConfig, hostname string, waiter port.ReleaseWaiter) (port.Backend, error) {
		return loopback.NewBackend(hostname, cfg.RootDir, waiter)
	},
}

// newBackend looks the configured backend up by name.
func newBackend(cfg config.BackendConfig, hostname string, waiter port.ReleaseWaiter) (port.Backend, error) {
	factory, ok := builtinBackends[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("%q is neither a built-in backend (%v) nor registered", cfg.Name, backendNames())
	}
	backend, err := factory(cfg, hostname, waiter)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s backend: %w", cfg.Name, err)
	}
	return backend, nil
}

func backendNames() []string {
	names := make([]string, 0, len(builtinBackends))
	for name := range builtinBackends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
