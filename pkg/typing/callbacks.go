package typing

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ActionFunc performs a named action on a note.
type ActionFunc func(ctx context.Context, n *Note) error

// MethodFunc computes a value for a note.
type MethodFunc func(ctx context.Context, n *Note, args ...string) (any, error)

// Callbacks is the registry of named Go callbacks that type specs refer to.
// Specs never carry code: an action, method or hook names a callback that
// must be registered here before [Build] runs.
//
// Safe for concurrent use. Callbacks are resolved at build time, so
// registering after a build affects only later builds.
type Callbacks struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
	methods map[string]MethodFunc
	hooks   map[string]HookFunc
}

// NewCallbacks returns an empty registry.
func NewCallbacks() *Callbacks {
	return &Callbacks{
		actions: make(map[string]ActionFunc),
		methods: make(map[string]MethodFunc),
		hooks:   make(map[string]HookFunc),
	}
}

// Action registers an action callback under name, replacing any previous one.
func (c *Callbacks) Action(name string, fn ActionFunc) *Callbacks {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.actions[name] = fn

	return c
}

// Method registers a method callback.
func (c *Callbacks) Method(name string, fn MethodFunc) *Callbacks {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.methods[name] = fn

	return c
}

// Hook registers a hook callback.
func (c *Callbacks) Hook(name string, fn HookFunc) *Callbacks {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hooks[name] = fn

	return c
}

// Names lists registered callbacks by kind ("action", "method", "hook").
func (c *Callbacks) Names(kind string) []string {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string

	switch kind {
	case "action":
		for k := range c.actions {
			out = append(out, k)
		}
	case "method":
		for k := range c.methods {
			out = append(out, k)
		}
	case "hook":
		for k := range c.hooks {
			out = append(out, k)
		}
	}

	sort.Strings(out)

	return out
}

func (c *Callbacks) action(name string) (ActionFunc, error) {
	if c != nil {
		c.mu.RLock()
		fn, ok := c.actions[name]
		c.mu.RUnlock()

		if ok {
			return fn, nil
		}
	}

	return nil, fmt.Errorf("%w: action %q", ErrUnknownCallback, name)
}

func (c *Callbacks) method(name string) (MethodFunc, error) {
	if c != nil {
		c.mu.RLock()
		fn, ok := c.methods[name]
		c.mu.RUnlock()

		if ok {
			return fn, nil
		}
	}

	return nil, fmt.Errorf("%w: method %q", ErrUnknownCallback, name)
}

func (c *Callbacks) hook(name string) (HookFunc, error) {
	if c != nil {
		c.mu.RLock()
		fn, ok := c.hooks[name]
		c.mu.RUnlock()

		if ok {
			return fn, nil
		}
	}

	return nil, fmt.Errorf("%w: hook %q", ErrUnknownCallback, name)
}
