package typing

import (
	"fmt"
	"strings"

	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/prefix"
)

// DefaultTypeName is the type notes fall back to when no other rule
// resolves them and no default type is configured explicitly.
const DefaultTypeName = "default"

// Graph is one immutable generation of types.
//
// A Graph is built completely by [Build] before anyone can see it and is never
// mutated afterwards; reloading configuration builds a new Graph. Safe for
// concurrent use.
type Graph struct {
	types       ordered[*Type]
	defaultType string
	generation  uint64
}

// BuildOption configures [Build].
type BuildOption func(*buildOptions)

type buildOptions struct {
	callbacks   *Callbacks
	defaultType string
	explicit    bool
	generation  uint64
}

// WithCallbacks sets the registry that action, method and hook names are
// resolved against. Without it, any spec referencing a callback fails.
func WithCallbacks(c *Callbacks) BuildOption {
	return func(o *buildOptions) {
		o.callbacks = c
	}
}

// WithDefaultType names the fallback type. Unlike the implicit
// [DefaultTypeName], an explicitly configured type must exist.
func WithDefaultType(name string) BuildOption {
	return func(o *buildOptions) {
		if name != "" {
			o.defaultType = name
			o.explicit = true
		}
	}
}

// WithGeneration stamps the graph with a generation number.
func WithGeneration(n uint64) BuildOption {
	return func(o *buildOptions) {
		o.generation = n
	}
}

// Build constructs a graph from specs, in order.
//
// Build runs in three passes: create raw nodes and bind callbacks, resolve
// parents and index ancestors (detecting cycles), then merge inherited
// entries. Any failure returns a [*ConfigError] and no graph.
func Build(specs []Spec, opts ...BuildOption) (*Graph, error) {
	o := buildOptions{defaultType: DefaultTypeName}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{defaultType: o.defaultType, generation: o.generation}

	for i, spec := range specs {
		t, err := newRawType(spec, i, o.callbacks)
		if err != nil {
			return nil, err
		}

		if g.types.has(t.name) {
			return nil, &ConfigError{Type: t.name, Err: ErrDuplicateType}
		}

		t.graph = g
		g.types.set(t.name, t)
	}

	for _, t := range g.types.values() {
		for _, name := range t.spec.Parents {
			parent, ok := g.types.get(name)
			if !ok {
				return nil, &ConfigError{Type: t.name, Err: fmt.Errorf("%w: %q", ErrUnknownParent, name)}
			}

			if !containsType(t.parents, parent) {
				t.parents = append(t.parents, parent)
			}
		}
	}

	ix := &ancestorIndexer{state: make(map[*Type]visitState)}
	for _, t := range g.types.values() {
		if err := ix.index(t); err != nil {
			return nil, err
		}
	}

	for _, t := range g.types.values() {
		t.merge()
	}

	if o.explicit && !g.types.has(o.defaultType) {
		return nil, &ConfigError{Type: o.defaultType, Err: ErrUnknownDefaultType}
	}

	return g, nil
}

// Get returns the named type, or nil.
func (g *Graph) Get(name string) *Type {
	if g == nil {
		return nil
	}

	t, _ := g.types.get(name)

	return t
}

// Types returns all types in declaration order.
func (g *Graph) Types() []*Type {
	if g == nil {
		return nil
	}

	return g.types.values()
}

// Len returns the number of types.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}

	return g.types.len()
}

// Generation returns the generation number the graph was built with.
func (g *Graph) Generation() uint64 {
	if g == nil {
		return 0
	}

	return g.generation
}

// DefaultType returns the fallback type, or nil if it does not exist.
func (g *Graph) DefaultType() *Type {
	return g.Get(g.defaultTypeName())
}

func (g *Graph) defaultTypeName() string {
	if g == nil {
		return ""
	}

	return g.defaultType
}

// ForPath returns the type bound to path by folder or glob, or nil.
//
// A folder binds its whole subtree. When several types match, the most
// specific wins: the longest folder, or for globs the longest literal
// prefix before the first wildcard. Remaining ties go to declaration order.
func (g *Graph) ForPath(p string) *Type {
	if g == nil {
		return nil
	}

	var (
		best      *Type
		bestScore = -1
	)

	for _, t := range g.types.values() {
		score := -1

		if t.folder != "" && inFolder(t.folder, p) {
			score = len(t.folder)
		}

		if t.glob.matches(p) && t.glob.literal > score {
			score = t.glob.literal
		}

		if score > bestScore {
			best, bestScore = t, score
		}
	}

	return best
}

// IsInstance reports whether t is ancestor or has it as an ancestor.
func (g *Graph) IsInstance(t, ancestor *Type) bool {
	return IsInstance(t, ancestor)
}

// IsInstance reports whether t is ancestor or has it as an ancestor. Types
// compare by name, so types of different generations are comparable.
func IsInstance(t, ancestor *Type) bool {
	if t == nil || ancestor == nil {
		return false
	}

	if t.name == ancestor.name {
		return true
	}

	_, ok := t.ancestorSet[ancestor.name]

	return ok
}

// Subtypes returns t and every type that has t as an ancestor, in
// declaration order.
func (g *Graph) Subtypes(t *Type) []*Type {
	if g == nil || t == nil {
		return nil
	}

	var out []*Type

	for _, c := range g.types.values() {
		if IsInstance(c, t) {
			out = append(out, c)
		}
	}

	return out
}

func newRawType(spec Spec, index int, cb *Callbacks) (*Type, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, &ConfigError{Err: fmt.Errorf("%w (index %d)", ErrEmptyTypeName, index)}
	}

	t := &Type{
		name:     name,
		spec:     spec,
		abstract: spec.Abstract,
		folder:   strings.Trim(strings.TrimSpace(spec.Folder), "/"),
	}

	fail := func(err error) (*Type, error) {
		return nil, &ConfigError{Type: name, Err: err}
	}

	glob, err := compileGlob(spec.Glob)
	if err != nil {
		return fail(err)
	}

	t.glob = glob

	if spec.Prefix != nil {
		var popts []prefix.Option
		if spec.Prefix.Delimiter != "" {
			popts = append(popts, prefix.WithDelimiter(spec.Prefix.Delimiter))
		}

		if spec.Prefix.Layout != "" {
			popts = append(popts, prefix.WithLayout(spec.Prefix.Layout))
		}

		p, err := prefix.New(spec.Prefix.Pattern, popts...)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrInvalidPrefix, err))
		}

		t.ownPrefix = p
	}

	t.createable = t.folder != ""
	if spec.Createable != nil {
		t.createable = *spec.Createable
	}

	if t.createable && t.folder == "" {
		return fail(ErrCreateableWithoutFolder)
	}

	for _, fspec := range spec.Fields {
		fname := strings.TrimSpace(fspec.Name)
		if fname == "" {
			return fail(ErrEmptyFieldName)
		}

		if t.ownFields.has(fname) {
			return fail(fmt.Errorf("%w: %q", ErrDuplicateField, fname))
		}

		kind, err := fields.ParseKind(fspec.Accessor)
		if err != nil {
			return fail(fmt.Errorf("%w: field %q: %w", ErrInvalidAccessor, fname, err))
		}

		t.ownFields.set(fname, &Field{Name: fname, Default: fspec.Default, Kind: kind, Declared: name})
	}

	for _, as := range spec.Actions {
		fn, err := cb.action(as.Callback)
		if err != nil {
			return fail(err)
		}

		t.ownActions.set(as.Name, &Action{
			Name: as.Name, Display: as.Display, Icon: as.Icon,
			Callback: as.Callback, Declared: name, fn: fn,
		})
	}

	for _, ms := range spec.Methods {
		fn, err := cb.method(ms.Callback)
		if err != nil {
			return fail(err)
		}

		t.ownMethods.set(ms.Name, &Method{Name: ms.Name, Callback: ms.Callback, Declared: name, fn: fn})
	}

	for event, callback := range spec.Hooks {
		hn, err := ParseHookName(string(event))
		if err != nil {
			return fail(err)
		}

		fn, err := cb.hook(callback)
		if err != nil {
			return fail(err)
		}

		if t.ownHooks == nil {
			t.ownHooks = make(map[HookName]boundHook)
		}

		t.ownHooks[hn] = boundHook{callback: callback, fn: fn}
	}

	return t, nil
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// ancestorIndexer computes ancestor lists by depth-first traversal,
// memoizing finished nodes. A node reached while still on the stack is a
// cycle.
type ancestorIndexer struct {
	state map[*Type]visitState
	stack []*Type
}

func (ix *ancestorIndexer) index(t *Type) error {
	switch ix.state[t] {
	case visited:
		return nil
	case visiting:
		return &ConfigError{Type: t.name, Err: fmt.Errorf("%w: %s", ErrCycle, ix.cyclePath(t))}
	}

	ix.state[t] = visiting
	ix.stack = append(ix.stack, t)

	t.ancestorSet = make(map[string]*Type)

	for _, p := range t.parents {
		if err := ix.index(p); err != nil {
			return err
		}

		t.addAncestor(p)

		for _, a := range p.ancestors {
			t.addAncestor(a)
		}
	}

	ix.stack = ix.stack[:len(ix.stack)-1]
	ix.state[t] = visited

	return nil
}

func (ix *ancestorIndexer) cyclePath(t *Type) string {
	start := 0

	for i, s := range ix.stack {
		if s == t {
			start = i

			break
		}
	}

	names := make([]string, 0, len(ix.stack)-start+1)
	for _, s := range ix.stack[start:] {
		names = append(names, s.name)
	}

	names = append(names, t.name)

	return strings.Join(names, " -> ")
}

func (t *Type) addAncestor(a *Type) {
	if _, ok := t.ancestorSet[a.name]; ok {
		return
	}

	t.ancestorSet[a.name] = a
	t.ancestors = append(t.ancestors, a)
}

// merge computes the effective view of t. For keyed entries the type's own
// entry wins; otherwise the first type in resolution order (declared parents,
// depth-first) that declares the key. Unset scalars take the value of the
// nearest such ancestor. Folder, glob, abstract and createable are never
// inherited.
func (t *Type) merge() {
	chain := append([]*Type{t}, t.ancestors...)

	for _, c := range chain {
		for name, f := range c.ownFields.all() {
			if !t.fields.has(name) {
				t.fields.set(name, f.bind(t))
			}
		}

		for name, a := range c.ownActions.all() {
			if !t.actions.has(name) {
				t.actions.set(name, a)
			}
		}

		for name, m := range c.ownMethods.all() {
			if !t.methods.has(name) {
				t.methods.set(name, m)
			}
		}
	}

	t.hooks = &HookContainer{}

	for i := len(chain) - 1; i >= 0; i-- {
		for event, b := range chain[i].ownHooks {
			t.hooks.set(event, b)
		}
	}

	styled := false

	for _, c := range chain {
		if t.icon == "" && c.spec.Icon != "" {
			t.icon = c.spec.Icon
		}

		if t.prefix == nil && c.ownPrefix != nil {
			t.prefix = c.ownPrefix
		}

		if !styled && c.spec.Style != nil {
			t.style = *c.spec.Style
			styled = true
		}
	}
}

func containsType(list []*Type, t *Type) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}

	return false
}
