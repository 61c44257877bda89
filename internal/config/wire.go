package config

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/time/rate"

	"cmdengine/pkg/captions"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/execution"
	"cmdengine/pkg/manager"
)

// ManagerOptions turns c into manager options. The returned shutdown function
// drains the worker pool of a deferred coordinator and must be called on exit.
func (c *Config) ManagerOptions() ([]manager.Option, func(context.Context) error, error) {
	registry := captions.NewRegistry()
	if c.CaptionsFile != "" {
		if err := registry.LoadFile(c.CaptionsFile); err != nil {
			return nil, nil, err
		}
	}

	opts := []manager.Option{
		manager.WithCaptions(registry),
		manager.WithPermissionPredicate(c.Predicate()),
	}

	shutdown := func(context.Context) error { return nil }
	switch c.Coordinator {
	case CoordinatorDeferred:
		pool := execution.NewWorkerPool(c.Workers, c.QueueSize)
		opts = append(opts, manager.WithCoordinator(execution.NewDeferred(pool)))
		shutdown = pool.Shutdown
	case CoordinatorSync:
		opts = append(opts, manager.WithCoordinator(execution.NewSynchronous()))
	default:
		return nil, nil, fmt.Errorf("invalid coordinator %q", c.Coordinator)
	}

	if c.RateLimit > 0 {
		opts = append(opts, manager.WithPreprocessor(manager.RateLimit(rate.Limit(c.RateLimit), c.RateBurst, nil)))
	}
	return opts, shutdown, nil
}

// Predicate grants the configured permissions to the configured sender and
// nothing to anyone else.
func (c *Config) Predicate() cmdtypes.PermissionPredicate {
	granted := slices.Clone(c.Permissions)
	sender := c.Sender
	return func(s any, permission string) bool {
		if fmt.Sprint(s) != sender {
			return false
		}
		return slices.Contains(granted, "*") || slices.Contains(granted, permission)
	}
}
