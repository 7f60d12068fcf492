package typing

import (
	"context"
	"fmt"
	"sort"

	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/vault"
)

// PrepareNew builds the initial state for a new note of t: schema defaults
// overlaid with initial. If t has a create hook, the hook receives the state
// and takes over creation; PrepareNew then returns handled == true and no
// state.
func (w *Workspace) PrepareNew(ctx context.Context, t *Type, initial *NoteState) (*NoteState, bool, error) {
	if err := instantiable(t); err != nil {
		return nil, false, err
	}

	state := &NoteState{Type: t, Fields: make(map[string]string)}

	for _, f := range t.Fields() {
		state.Fields[f.Name] = f.Default
	}

	if initial != nil {
		state.Prefix = initial.Prefix
		state.Title = initial.Title
		state.Text = initial.Text

		for k, v := range initial.Fields {
			state.Fields[k] = v
		}
	}

	if !t.Hooks().Has(HookCreate) {
		return state, false, nil
	}

	_, err := t.Hooks().Run(ctx, &HookContext{Event: HookCreate, Type: t, State: state, Workspace: w})
	if err != nil {
		return nil, true, &HookError{Hook: HookCreate, Err: err}
	}

	return nil, true, nil
}

// Create writes a new note of t from state and fires on_create.
//
// The text starts from state.Text; every schema field is set to its state
// value or its default, other state fields are set as given. The note is
// named compose(prefix, title).md inside the type folder, with the prefix
// generated from the type's prefix layout when state has none. Create never
// overwrites: an existing target fails with [vault.ErrExists]. When only
// on_create fails, the note is returned together with a [*HookError].
func (w *Workspace) Create(ctx context.Context, t *Type, state *NoteState) (*Note, error) {
	if t == nil && state != nil {
		t = state.Type
	}

	if err := instantiable(t); err != nil {
		return nil, err
	}

	if !t.Createable() {
		return nil, &ResolutionError{Type: t.Name(), Err: ErrNotCreateable}
	}

	if state == nil {
		state = &NoteState{}
	}

	pfx := state.Prefix
	if pfx == "" {
		pfx = t.Prefix().Generate(w.cfg.Now())
	}

	if pfx != "" && t.Prefix() != nil && !t.Prefix().Matches(pfx) {
		return nil, fmt.Errorf("%w: %q does not match %s", ErrInvalidPrefix, pfx, t.Prefix())
	}

	fullname := t.Prefix().Compose(pfx, state.Title)
	if fullname == "" {
		return nil, ErrTitleRequired
	}

	p, err := vault.Clean(vault.Join(t.Folder(), fullname+".md"))
	if err != nil {
		return nil, &vault.Error{Op: "create", Path: fullname, Err: err}
	}

	text, err := composeText(ctx, t, state)
	if err != nil {
		return nil, err
	}

	exists, err := w.cfg.Storage.Exists(ctx, p)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, &vault.Error{Op: "create", Path: p, Err: vault.ErrExists}
	}

	err = w.cfg.Storage.Write(ctx, p, text)
	if err != nil {
		return nil, err
	}

	w.track(ctx, p)

	n := &Note{ws: w, path: p, typ: t}

	err = n.runHook(ctx, &HookContext{Event: HookOnCreate, Type: t, Note: n, State: state, Workspace: w})
	if err != nil {
		return n, err
	}

	return n, nil
}

func composeText(ctx context.Context, t *Type, state *NoteState) (string, error) {
	buf := fields.NewBuffer(state.Text, t.Selector())

	for _, f := range t.Fields() {
		v, ok := state.Fields[f.Name]
		if !ok {
			v = f.Default
		}

		if err := buf.Set(ctx, f.Name, v); err != nil {
			return "", err
		}
	}

	extra := make([]string, 0, len(state.Fields))

	for k := range state.Fields {
		if _, ok := t.Field(k); !ok {
			extra = append(extra, k)
		}
	}

	sort.Strings(extra)

	for _, k := range extra {
		if err := buf.Set(ctx, k, state.Fields[k]); err != nil {
			return "", err
		}
	}

	return buf.Text(), nil
}

func instantiable(t *Type) error {
	if t == nil {
		return &ResolutionError{Err: ErrNoSuchType}
	}

	if t.Abstract() {
		return &ResolutionError{Type: t.Name(), Err: ErrAbstract}
	}

	return nil
}
