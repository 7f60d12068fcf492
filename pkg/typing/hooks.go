package typing

import (
	"context"
	"fmt"
	"sort"
)

// HookName identifies a lifecycle event.
type HookName string

// Lifecycle events.
const (
	// HookCreate replaces the default creation flow of [Workspace.PrepareNew].
	HookCreate HookName = "create"
	// HookOnCreate fires after a note was written by [Workspace.Create].
	HookOnCreate HookName = "on_create"
	// HookOnRename fires after a successful [Note.Rename].
	HookOnRename HookName = "on_rename"
)

// ParseHookName validates an event name.
func ParseHookName(s string) (HookName, error) {
	switch h := HookName(s); h {
	case HookCreate, HookOnCreate, HookOnRename:
		return h, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownHook, s)
	}
}

// RenameEvent describes the note before a rename.
type RenameEvent struct {
	PrevPath     string
	PrevFilename string
	PrevFullname string
	PrevTitle    string
}

// HookContext is passed to every hook callback.
type HookContext struct {
	Event HookName
	Type  *Type
	// Note is the affected note. Nil for [HookCreate], which runs before the
	// note exists.
	Note *Note
	// State is the requested state for create events; hooks may modify it.
	State *NoteState
	// Rename is set for [HookOnRename].
	Rename *RenameEvent
	// Workspace lets create hooks finish creation themselves.
	Workspace *Workspace
}

// HookFunc is a registered lifecycle callback.
type HookFunc func(ctx context.Context, hc *HookContext) error

// HookContainer holds the effective hooks of one Type. It is merged through
// the inheritance graph like the other keyed maps: a type's own hook for an
// event overrides any inherited one. Immutable after build.
type HookContainer struct {
	hooks map[HookName]boundHook
}

type boundHook struct {
	callback string
	fn       HookFunc
}

// Has reports whether a hook is registered for event.
func (h *HookContainer) Has(event HookName) bool {
	if h == nil {
		return false
	}

	_, ok := h.hooks[event]

	return ok
}

// Callback returns the callback name bound to event.
func (h *HookContainer) Callback(event HookName) (string, bool) {
	if h == nil {
		return "", false
	}

	b, ok := h.hooks[event]

	return b.callback, ok
}

// Names returns the registered events, sorted.
func (h *HookContainer) Names() []HookName {
	if h == nil {
		return nil
	}

	out := make([]HookName, 0, len(h.hooks))
	for name := range h.hooks {
		out = append(out, name)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Run invokes the hook for hc.Event. Returns false if none is registered.
func (h *HookContainer) Run(ctx context.Context, hc *HookContext) (bool, error) {
	if h == nil {
		return false, nil
	}

	b, ok := h.hooks[hc.Event]
	if !ok {
		return false, nil
	}

	return true, b.fn(ctx, hc)
}

func (h *HookContainer) set(event HookName, b boundHook) {
	if h.hooks == nil {
		h.hooks = make(map[HookName]boundHook)
	}

	h.hooks[event] = b
}
