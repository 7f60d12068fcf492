package typing

import (
	"context"
	"regexp"
	"strings"
)

var wikiLink = regexp.MustCompile(`\[\[([^\[\]|#]+)(?:#[^\[\]|]*)?(?:\|[^\[\]]*)?\]\]`)

// Relations resolves [[wiki link]] relations stored in note fields.
type Relations struct {
	note *Note
}

// Links returns the link targets held by field, in order of appearance.
func (r *Relations) Links(ctx context.Context, field string) []string {
	v, ok := r.note.Field(ctx, field)
	if !ok {
		return nil
	}

	return parseLinks(v)
}

// Referencing returns the notes of createable types whose field links to
// this note, by fullname or by path without extension.
func (r *Relations) Referencing(ctx context.Context, field string) ([]*Note, error) {
	g := r.note.typ.Graph()
	names := map[string]bool{
		r.note.Fullname(): true,
		strings.TrimSuffix(r.note.path, "."+r.note.Extension()): true,
	}

	seen := make(map[string]bool)

	var out []*Note

	for _, t := range g.Types() {
		if !t.Createable() {
			continue
		}

		if _, ok := t.Field(field); !ok {
			continue
		}

		notes, err := r.note.ws.AllNotes(ctx, t, false)
		if err != nil {
			return nil, err
		}

		for _, n := range notes {
			if seen[n.path] || n.path == r.note.path {
				continue
			}

			for _, target := range n.Relations().Links(ctx, field) {
				if names[target] {
					seen[n.path] = true
					out = append(out, n)

					break
				}
			}
		}
	}

	return out, nil
}

func parseLinks(v string) []string {
	matches := wikiLink.FindAllStringSubmatch(v, -1)
	out := make([]string, 0, len(matches))

	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}

	return out
}
