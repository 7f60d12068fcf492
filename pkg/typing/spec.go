package typing

// Spec is the raw declaration of one Type, as supplied by a config source.
//
// Specs are plain data: [Build] validates them, resolves parent names, binds
// callbacks and computes the merged view. Field, action, and method lists
// are ordered; their order is the display order of the merged Type.
type Spec struct {
	Name    string   `json:"name"              yaml:"name"`
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty"`

	// Abstract types cannot be instantiated. Not inherited.
	Abstract bool `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Createable types get notes created in Folder. Nil means createable
	// exactly when Folder is set. Not inherited.
	Createable *bool `json:"createable,omitempty" yaml:"createable,omitempty"`

	// Folder and Glob bind paths to this type. Not inherited.
	Folder string `json:"folder,omitempty" yaml:"folder,omitempty"`
	Glob   string `json:"glob,omitempty"   yaml:"glob,omitempty"`

	Icon   string      `json:"icon,omitempty"   yaml:"icon,omitempty"`
	Prefix *PrefixSpec `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Style  *Style      `json:"style,omitempty"  yaml:"style,omitempty"`

	Fields  []FieldSpec  `json:"fields,omitempty"  yaml:"fields,omitempty"`
	Actions []ActionSpec `json:"actions,omitempty" yaml:"actions,omitempty"`
	Methods []MethodSpec `json:"methods,omitempty" yaml:"methods,omitempty"`

	// Hooks maps a lifecycle event name to a registered hook callback.
	Hooks map[HookName]string `json:"hooks,omitempty" yaml:"hooks,omitempty"`
}

// FieldSpec declares one schema field.
type FieldSpec struct {
	Name    string `json:"name"              yaml:"name"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
	// Accessor is "auto" (default), "header" or "inline".
	Accessor string `json:"accessor,omitempty" yaml:"accessor,omitempty"`
}

// ActionSpec declares a user-facing action bound to a registered callback.
type ActionSpec struct {
	Name     string `json:"name"              yaml:"name"`
	Display  string `json:"display,omitempty" yaml:"display,omitempty"`
	Icon     string `json:"icon,omitempty"    yaml:"icon,omitempty"`
	Callback string `json:"callback"          yaml:"callback"`
}

// MethodSpec declares a value-returning method bound to a registered callback.
type MethodSpec struct {
	Name     string `json:"name"     yaml:"name"`
	Callback string `json:"callback" yaml:"callback"`
}

// PrefixSpec declares the filename prefix of a type.
type PrefixSpec struct {
	Pattern   string `json:"pattern"             yaml:"pattern"`
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	// Layout is a Go time layout used to generate prefixes for new notes.
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Style carries presentation hints for UI collaborators.
type Style struct {
	Color            string `json:"color,omitempty"              yaml:"color,omitempty"`
	Class            string `json:"class,omitempty"              yaml:"class,omitempty"`
	HideInlineFields bool   `json:"hide_inline_fields,omitempty" yaml:"hide_inline_fields,omitempty"`
}
