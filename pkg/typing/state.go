package typing

import (
	"context"
	"sort"

	"github.com/calvinalkan/typing/pkg/fields"
)

// NoteState is a snapshot of a note, or a requested state for creation.
type NoteState struct {
	Type   *Type
	Prefix string
	Title  string
	// Fields holds the schema fields the document stores. Absent fields
	// have no key.
	Fields map[string]string
	Text   string
}

// Field returns the value of name in the state.
func (s *NoteState) Field(name string) (string, bool) {
	if s == nil {
		return "", false
	}

	v, ok := s.Fields[name]

	return v, ok
}

// SetField sets name in the state.
func (s *NoteState) SetField(name, value string) {
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}

	s.Fields[name] = value
}

// Clone returns a deep copy.
func (s *NoteState) Clone() *NoteState {
	if s == nil {
		return nil
	}

	c := *s
	c.Fields = make(map[string]string, len(s.Fields))

	for k, v := range s.Fields {
		c.Fields[k] = v
	}

	return &c
}

// State snapshots the note: type, prefix, title, raw text and every schema
// field that can be read. The document is read once.
func (n *Note) State(ctx context.Context) (*NoteState, error) {
	text, err := n.Text(ctx)
	if err != nil {
		return nil, err
	}

	s := &NoteState{
		Type:   n.typ,
		Prefix: n.Prefix(),
		Title:  n.Title(),
		Fields: make(map[string]string),
		Text:   text,
	}

	if n.typ == nil {
		return s, nil
	}

	buf := fields.NewBuffer(text, n.typ.Selector())

	for _, f := range n.typ.Fields() {
		l := buf.Get(ctx, f.Name)
		if l.OK() {
			s.Fields[f.Name] = l.Value
		}
	}

	return s, nil
}

// ApplyState moves the note to want. Each field whose value differs from
// the current one is written with exactly one field set; fields equal to
// the current value are not touched. A changed title or prefix causes
// exactly one rename. An empty Title or Prefix in want means unchanged.
//
// Writes are sequential and not transactional: the first failure stops
// the remaining writes and earlier ones stay in place.
func (n *Note) ApplyState(ctx context.Context, want *NoteState) error {
	if want == nil {
		return nil
	}

	cur, err := n.State(ctx)
	if err != nil {
		return err
	}

	for _, name := range n.orderedFieldNames(want.Fields) {
		v := want.Fields[name]
		if have, ok := cur.Fields[name]; ok && have == v {
			continue
		}

		if err := n.SetField(ctx, name, v); err != nil {
			return err
		}
	}

	var opts []RenameOption

	if want.Title != "" && want.Title != cur.Title {
		opts = append(opts, WithTitle(want.Title))
	}

	if want.Prefix != "" && want.Prefix != cur.Prefix {
		opts = append(opts, WithPrefix(want.Prefix))
	}

	if len(opts) == 0 {
		return nil
	}

	return n.Rename(ctx, opts...)
}

// orderedFieldNames returns the keys of values in schema order, followed by
// any others sorted.
func (n *Note) orderedFieldNames(values map[string]string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))

	if n.typ != nil {
		for _, f := range n.typ.Fields() {
			if _, ok := values[f.Name]; ok {
				out = append(out, f.Name)
				seen[f.Name] = true
			}
		}
	}

	var rest []string

	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}

	sort.Strings(rest)

	return append(out, rest...)
}
