package typing_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/typing/pkg/typing"
)

func diamondSpecs() []typing.Spec {
	return []typing.Spec{
		{Name: "A", Parents: []string{"B", "C"}},
		{Name: "B", Parents: []string{"D"}},
		{Name: "C", Parents: []string{"D"}, Fields: []typing.FieldSpec{{Name: "k", Default: "from C"}}},
		{Name: "D", Fields: []typing.FieldSpec{{Name: "k", Default: "from D"}, {Name: "d"}}},
		{Name: "E"},
	}
}

// Contract: ancestors(T) == parents(T) ∪ ancestors(p) for every parent p.
func Test_Build_IndexesAncestorsAsTransitiveClosure(t *testing.T) {
	t.Parallel()

	g, err := typing.Build(diamondSpecs())
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "D", "C"}, names(g.Get("A").Ancestors()))
	assert.Equal(t, []string{"D"}, names(g.Get("B").Ancestors()))
	assert.Empty(t, g.Get("D").Ancestors())

	for _, typ := range g.Types() {
		want := map[string]bool{}

		for _, p := range typ.Parents() {
			want[p.Name()] = true
			for _, a := range p.Ancestors() {
				want[a.Name()] = true
			}
		}

		got := map[string]bool{}
		for _, a := range typ.Ancestors() {
			got[a.Name()] = true
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ancestors of %s (-want +got):\n%s", typ.Name(), diff)
		}
	}
}

func Test_Build_FailsWithConfigError_When_InheritanceCycles(t *testing.T) {
	t.Parallel()

	_, err := typing.Build([]typing.Spec{
		{Name: "A", Parents: []string{"B"}},
		{Name: "B", Parents: []string{"A"}},
	})
	require.ErrorIs(t, err, typing.ErrCycle)
	assert.True(t, typing.IsConfigError(err))
	assert.Contains(t, err.Error(), "A -> B -> A")

	_, err = typing.Build([]typing.Spec{{Name: "Self", Parents: []string{"Self"}}})
	require.ErrorIs(t, err, typing.ErrCycle)
	assert.Contains(t, err.Error(), "Self -> Self")
}

func Test_Build_FailsWithConfigError_When_SpecInvalid(t *testing.T) {
	t.Parallel()

	cb := typing.NewCallbacks().Action("known", func(context.Context, *typing.Note) error { return nil })

	cases := []struct {
		name  string
		specs []typing.Spec
		opts  []typing.BuildOption
		want  error
		typ   string
	}{
		{"unknown parent", []typing.Spec{{Name: "A", Parents: []string{"Nope"}}}, nil, typing.ErrUnknownParent, "A"},
		{"duplicate", []typing.Spec{{Name: "A"}, {Name: "A"}}, nil, typing.ErrDuplicateType, "A"},
		{"empty name", []typing.Spec{{Name: " "}}, nil, typing.ErrEmptyTypeName, ""},
		{"createable without folder", []typing.Spec{{Name: "A", Createable: ptr(true)}}, nil, typing.ErrCreateableWithoutFolder, "A"},
		{"unknown action callback", []typing.Spec{{Name: "A", Actions: []typing.ActionSpec{{Name: "x", Callback: "nope"}}}}, []typing.BuildOption{typing.WithCallbacks(cb)}, typing.ErrUnknownCallback, "A"},
		{"callback without registry", []typing.Spec{{Name: "A", Methods: []typing.MethodSpec{{Name: "m", Callback: "known"}}}}, nil, typing.ErrUnknownCallback, "A"},
		{"unknown hook event", []typing.Spec{{Name: "A", Hooks: map[typing.HookName]string{"on_delete": "x"}}}, nil, typing.ErrUnknownHook, "A"},
		{"invalid prefix", []typing.Spec{{Name: "A", Prefix: &typing.PrefixSpec{Pattern: "("}}}, nil, typing.ErrInvalidPrefix, "A"},
		{"duplicate field", []typing.Spec{{Name: "A", Fields: []typing.FieldSpec{{Name: "f"}, {Name: "f"}}}}, nil, typing.ErrDuplicateField, "A"},
		{"empty field", []typing.Spec{{Name: "A", Fields: []typing.FieldSpec{{Name: ""}}}}, nil, typing.ErrEmptyFieldName, "A"},
		{"invalid accessor", []typing.Spec{{Name: "A", Fields: []typing.FieldSpec{{Name: "f", Accessor: "yaml"}}}}, nil, typing.ErrInvalidAccessor, "A"},
		{"invalid glob", []typing.Spec{{Name: "A", Glob: "[x"}}, nil, typing.ErrInvalidGlob, "A"},
		{"negated glob", []typing.Spec{{Name: "A", Glob: "!x.md"}}, nil, typing.ErrInvalidGlob, "A"},
		{"unknown default type", []typing.Spec{{Name: "A"}}, []typing.BuildOption{typing.WithDefaultType("Missing")}, typing.ErrUnknownDefaultType, "Missing"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g, err := typing.Build(tc.specs, tc.opts...)
			require.ErrorIs(t, err, tc.want)
			assert.Nil(t, g)

			var ce *typing.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.typ, ce.Type)
		})
	}
}

// Contract: own entries override; otherwise the first declared parent wins.
func Test_Build_MergesFields_When_ParentsOverlap(t *testing.T) {
	t.Parallel()

	g, err := typing.Build([]typing.Spec{
		{Name: "P", Fields: []typing.FieldSpec{{Name: "x", Default: "P"}, {Name: "p"}}},
		{Name: "Q", Fields: []typing.FieldSpec{{Name: "x", Default: "Q"}, {Name: "q"}}},
		{Name: "T", Parents: []string{"P", "Q"}},
		{Name: "Own", Parents: []string{"P"}, Fields: []typing.FieldSpec{{Name: "x", Default: "own", Accessor: "inline"}}},
	})
	require.NoError(t, err)

	tt := g.Get("T")
	x, ok := tt.Field("x")
	require.True(t, ok)
	assert.Equal(t, "P", x.Default)
	assert.Equal(t, "P", x.Declared)
	assert.Same(t, tt, x.Owner())
	assert.Equal(t, []string{"x", "p", "q"}, fieldNames(tt))

	own, _ := g.Get("Own").Field("x")
	assert.Equal(t, "own", own.Default)
	assert.Equal(t, "inline", string(own.Kind))

	// Inherited fields are rebound, not shared.
	px, _ := g.Get("P").Field("x")
	assert.NotSame(t, px, x)
	assert.Same(t, g.Get("P"), px.Owner())
}

func Test_Build_ResolvesDiamondDepthFirst(t *testing.T) {
	t.Parallel()

	g, err := typing.Build(diamondSpecs())
	require.NoError(t, err)

	k, ok := g.Get("A").Field("k")
	require.True(t, ok)
	assert.Equal(t, "from D", k.Default, "B is declared first and reaches D before C")
	assert.Equal(t, []string{"k", "d"}, fieldNames(g.Get("A")))
}

func Test_Build_InheritsScalars_But_NotFolderGlobOrAbstract(t *testing.T) {
	t.Parallel()

	g, err := typing.Build([]typing.Spec{
		{
			Name: "Base", Abstract: true, Folder: "Base", Glob: "*.base.md", Icon: "star",
			Prefix: &typing.PrefixSpec{Pattern: `\d{4}`}, Style: &typing.Style{Color: "red"},
		},
		{Name: "Child", Parents: []string{"Base"}},
		{Name: "Own", Parents: []string{"Base"}, Icon: "moon", Style: &typing.Style{Class: "own"}},
	})
	require.NoError(t, err)

	child := g.Get("Child")
	assert.False(t, child.Abstract())
	assert.Empty(t, child.Folder())
	assert.Empty(t, child.Glob())
	assert.False(t, child.Createable())
	assert.Equal(t, "star", child.Icon())
	assert.Equal(t, `\d{4}`, child.Prefix().Pattern())
	assert.Equal(t, typing.Style{Color: "red"}, child.Style())

	own := g.Get("Own")
	assert.Equal(t, "moon", own.Icon())
	assert.Equal(t, typing.Style{Class: "own"}, own.Style())

	base := g.Get("Base")
	assert.True(t, base.Abstract())
	assert.True(t, base.Createable())
}

func Test_Build_MergesActionsMethodsAndHooks(t *testing.T) {
	t.Parallel()

	var ran []string

	cb := typing.NewCallbacks().
		Action("a", func(context.Context, *typing.Note) error { return nil }).
		Method("m", func(context.Context, *typing.Note, ...string) (any, error) { return 1, nil }).
		Hook("parent", func(context.Context, *typing.HookContext) error {
			ran = append(ran, "parent")

			return nil
		}).
		Hook("child", func(context.Context, *typing.HookContext) error {
			ran = append(ran, "child")

			return nil
		})

	g, err := typing.Build([]typing.Spec{
		{
			Name:    "P",
			Actions: []typing.ActionSpec{{Name: "act", Callback: "a", Display: "Act"}},
			Methods: []typing.MethodSpec{{Name: "meth", Callback: "m"}},
			Hooks:   map[typing.HookName]string{typing.HookOnCreate: "parent", typing.HookOnRename: "parent"},
		},
		{Name: "C", Parents: []string{"P"}, Hooks: map[typing.HookName]string{typing.HookOnRename: "child"}},
	}, typing.WithCallbacks(cb))
	require.NoError(t, err)

	c := g.Get("C")
	act, ok := c.Action("act")
	require.True(t, ok)
	assert.Equal(t, "Act", act.Display)
	assert.Equal(t, "P", act.Declared)

	_, ok = c.Method("meth")
	assert.True(t, ok)

	assert.Equal(t, []typing.HookName{typing.HookOnCreate, typing.HookOnRename}, c.Hooks().Names())

	cbName, _ := c.Hooks().Callback(typing.HookOnRename)
	assert.Equal(t, "child", cbName)

	handled, err := c.Hooks().Run(t.Context(), &typing.HookContext{Event: typing.HookOnRename})
	require.NoError(t, err)
	assert.True(t, handled)

	handled, err = c.Hooks().Run(t.Context(), &typing.HookContext{Event: typing.HookCreate})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, []string{"child"}, ran)
}

func Test_Graph_ForPath_PicksMostSpecificMatch(t *testing.T) {
	t.Parallel()

	g, err := typing.Build([]typing.Spec{
		{Name: "Media", Folder: "Media"},
		{Name: "Book", Folder: "Media/Books/"},
		{Name: "Journal", Folder: "Journal"},
		{Name: "Daily", Glob: "Journal/*.md"},
		{Name: "Anywhere", Glob: "*.book.md"},
		{Name: "Twin", Folder: "Media"},
	})
	require.NoError(t, err)

	cases := map[string]string{
		"Media/x.md":            "Media",
		"Media/Books/x.md":      "Book",
		"Media/Books/a/b.md":    "Book",
		"Journal/day.md":        "Daily",
		"deep/dir/x.book.md":    "Anywhere",
		"Media/Books/y.book.md": "Book",
		"MediaX/x.md":           "",
		"x.md":                  "",
	}

	for p, want := range cases {
		got := g.ForPath(p)
		if want == "" {
			assert.Nil(t, got, p)

			continue
		}

		require.NotNil(t, got, p)
		assert.Equal(t, want, got.Name(), p)
	}
}

func Test_IsInstance(t *testing.T) {
	t.Parallel()

	g, err := typing.Build(diamondSpecs())
	require.NoError(t, err)

	a, d, e := g.Get("A"), g.Get("D"), g.Get("E")

	assert.True(t, g.IsInstance(a, a))
	assert.True(t, g.IsInstance(a, d))
	assert.False(t, g.IsInstance(d, a))
	assert.False(t, g.IsInstance(a, e))
	assert.False(t, typing.IsInstance(nil, a))

	assert.Equal(t, []string{"A", "B", "C", "D"}, names(g.Subtypes(d)))
}

func Test_Graph_DefaultType(t *testing.T) {
	t.Parallel()

	g, err := typing.Build([]typing.Spec{{Name: "default"}, {Name: "Other"}})
	require.NoError(t, err)
	assert.Equal(t, "default", g.DefaultType().Name())

	g, err = typing.Build([]typing.Spec{{Name: "default"}, {Name: "Other"}}, typing.WithDefaultType("Other"))
	require.NoError(t, err)
	assert.Equal(t, "Other", g.DefaultType().Name())

	g, err = typing.Build(nil)
	require.NoError(t, err)
	assert.Nil(t, g.DefaultType())
	assert.Nil(t, g.Get("anything"))
}
