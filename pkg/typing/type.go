package typing

import (
	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/prefix"
)

// Field is one schema field of a Type. Every merged Type holds its own Field
// values: an inherited field is copied and rebound to the inheriting type.
type Field struct {
	Name    string
	Default string
	Kind    fields.Kind
	// Declared is the name of the type that declares the field.
	Declared string

	owner *Type
}

// Owner returns the type the field is bound to.
func (f *Field) Owner() *Type { return f.owner }

// Codec returns the text codec backing the field.
func (f *Field) Codec() fields.Codec { return fields.CodecFor(f.Kind) }

func (f *Field) bind(owner *Type) *Field {
	c := *f
	c.owner = owner

	return &c
}

// Action is a named, user-facing operation on a note.
type Action struct {
	Name     string
	Display  string
	Icon     string
	Callback string
	Declared string

	fn ActionFunc
}

// Method is a named value-returning operation on a note.
type Method struct {
	Name     string
	Callback string
	Declared string

	fn MethodFunc
}

// Type is one node of a built [Graph]. All accessors return the merged
// (effective) view. Types are immutable.
type Type struct {
	name        string
	spec        Spec
	abstract    bool
	createable  bool
	parents     []*Type
	ancestors   []*Type
	ancestorSet map[string]*Type
	folder      string
	glob        *globMatcher
	icon        string
	prefix      *prefix.Prefix
	style       Style
	fields      ordered[*Field]
	actions     ordered[*Action]
	methods     ordered[*Method]
	hooks       *HookContainer
	graph       *Graph

	// own* hold the entries declared by this type's spec.
	ownFields  ordered[*Field]
	ownActions ordered[*Action]
	ownMethods ordered[*Method]
	ownHooks   map[HookName]boundHook
	ownPrefix  *prefix.Prefix
}

// Name returns the unique type name.
func (t *Type) Name() string { return t.name }

// Spec returns the raw declaration the type was built from.
func (t *Type) Spec() Spec { return t.spec }

// Abstract reports whether the type may not be instantiated directly.
func (t *Type) Abstract() bool { return t.abstract }

// Createable reports whether new notes of this type can be created.
func (t *Type) Createable() bool { return t.createable }

// Folder returns the type's own folder, or "".
func (t *Type) Folder() string { return t.folder }

// Glob returns the type's own glob pattern, or "".
func (t *Type) Glob() string {
	if t.glob == nil {
		return ""
	}

	return t.glob.pattern
}

// Icon returns the effective icon.
func (t *Type) Icon() string { return t.icon }

// Prefix returns the effective filename prefix. Nil means none; the nil
// prefix still parses and composes plain names.
func (t *Type) Prefix() *prefix.Prefix {
	if t == nil {
		return nil
	}

	return t.prefix
}

// Style returns the effective style.
func (t *Type) Style() Style { return t.style }

// Parents returns the direct parents in declared order.
func (t *Type) Parents() []*Type { return append([]*Type(nil), t.parents...) }

// ParentNames returns the declared parent names.
func (t *Type) ParentNames() []string { return append([]string(nil), t.spec.Parents...) }

// Ancestors returns every transitive parent in resolution order: declared
// parents depth-first, each ancestor once.
func (t *Type) Ancestors() []*Type { return append([]*Type(nil), t.ancestors...) }

// Ancestor returns the named ancestor, or nil.
func (t *Type) Ancestor(name string) *Type { return t.ancestorSet[name] }

// Fields returns the merged schema in display order: own fields first, then
// inherited ones in resolution order.
func (t *Type) Fields() []*Field { return t.fields.values() }

// Field returns the named field of the merged schema.
func (t *Type) Field(name string) (*Field, bool) { return t.fields.get(name) }

// Actions returns the merged actions.
func (t *Type) Actions() []*Action { return t.actions.values() }

// Action returns the named merged action.
func (t *Type) Action(name string) (*Action, bool) { return t.actions.get(name) }

// Methods returns the merged methods.
func (t *Type) Methods() []*Method { return t.methods.values() }

// Method returns the named merged method.
func (t *Type) Method(name string) (*Method, bool) { return t.methods.get(name) }

// Hooks returns the merged hook container.
func (t *Type) Hooks() *HookContainer { return t.hooks }

// Graph returns the graph generation the type belongs to.
func (t *Type) Graph() *Graph { return t.graph }

// Selector returns the codec selector for the type's schema. Fields outside
// the schema use [fields.Auto].
func (t *Type) Selector() fields.Selector {
	if t == nil {
		return nil
	}

	return func(name string) fields.Codec {
		if f, ok := t.fields.get(name); ok {
			return f.Codec()
		}

		return nil
	}
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	if t == nil {
		return "<untyped>"
	}

	return t.name
}
