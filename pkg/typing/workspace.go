package typing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/untillpro/goutils/logger"

	"github.com/calvinalkan/typing/pkg/vault"
)

// DefaultTypeMarker is the header field that names a note's type.
const DefaultTypeMarker = "_type"

// Index is an optional bulk path lookup. It only speeds up folder listings;
// without one, [Workspace] walks folders with [vault.Storage.ListChildren].
type Index interface {
	// PathsIn returns the document paths directly inside any of folders.
	PathsIn(ctx context.Context, folders []string) ([]string, error)
}

// IndexUpdater is implemented by indexes that track creates and renames.
type IndexUpdater interface {
	Track(ctx context.Context, p string) error
	Move(ctx context.Context, from, to string) error
}

// Config holds the collaborators of a [Workspace].
type Config struct {
	// Storage holds the documents. Required.
	Storage vault.Storage

	// Index is optional. When it also implements [IndexUpdater], creates and
	// renames are reported to it.
	Index Index

	// Callbacks resolves callback names in specs. May be nil when no spec
	// references callbacks.
	Callbacks *Callbacks

	// DefaultType names the fallback type. Empty uses a type named
	// [DefaultTypeName] if the graph has one.
	DefaultType string

	// TypeMarker is the header field naming a note's type. Empty uses
	// [DefaultTypeMarker]; "-" disables marker resolution.
	TypeMarker string

	// Now is the clock used to generate prefixes. Defaults to time.Now.
	Now func() time.Time
}

// Workspace binds a published type graph to its collaborators.
//
// The active graph is replaced atomically by [Workspace.Reload]. Notes keep
// the type they resolved at construction, from whatever generation was then
// active. Safe for concurrent use.
type Workspace struct {
	cfg        Config
	marker     string
	graph      atomic.Pointer[Graph]
	generation atomic.Uint64
	reloadMu   sync.Mutex
}

// New returns a workspace with no graph loaded. Call [Workspace.Reload]
// before resolving notes.
func New(cfg Config) (*Workspace, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("typing: storage is required")
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	marker := cfg.TypeMarker

	switch marker {
	case "":
		marker = DefaultTypeMarker
	case "-":
		marker = ""
	}

	return &Workspace{cfg: cfg, marker: marker}, nil
}

// Storage returns the document store.
func (w *Workspace) Storage() vault.Storage { return w.cfg.Storage }

// Graph returns the active graph, or nil before the first successful load.
func (w *Workspace) Graph() *Graph { return w.graph.Load() }

// Reload builds a graph from specs and publishes it. On failure the active
// graph stays in place and the [*ConfigError] is returned.
func (w *Workspace) Reload(specs []Spec) (*Graph, error) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	gen := w.generation.Load() + 1

	g, err := Build(specs,
		WithCallbacks(w.cfg.Callbacks),
		WithDefaultType(w.cfg.DefaultType),
		WithGeneration(gen),
	)
	if err != nil {
		logger.Error(fmt.Sprintf("type graph rejected, keeping generation %d: %v", w.generation.Load(), err))

		return nil, err
	}

	w.generation.Store(gen)
	w.graph.Store(g)

	logger.Info(fmt.Sprintf("type graph generation %d published: %d types", gen, g.Len()))

	return g, nil
}

// WatchConfig watches path in storage and calls load then [Workspace.Reload]
// on every change. Load and reload failures are logged and leave the active
// graph in place. The watch ends when stop is called or ctx is done.
func (w *Workspace) WatchConfig(ctx context.Context, path string, load func(ctx context.Context) ([]Spec, error)) (func() error, error) {
	return w.cfg.Storage.Watch(ctx, path, func(string) {
		specs, err := load(ctx)
		if err != nil {
			logger.Error(fmt.Sprintf("reload %s: %v", path, err))

			return
		}

		_, _ = w.Reload(specs)
	})
}

// NoteOption configures [Workspace.Note].
type NoteOption func(*noteOptions)

type noteOptions struct {
	typ      *Type
	explicit bool
}

// WithType binds the note to t, skipping resolution. A nil t makes the
// note explicitly untyped.
func WithType(t *Type) NoteOption {
	return func(o *noteOptions) {
		o.typ = t
		o.explicit = true
	}
}

// Note returns a handle for the document at path.
//
// The type is resolved once, first match wins: an explicit [WithType]; the
// folder or glob binding of the active graph; the type-marker header field;
// the default type. Otherwise the note is untyped. Resolution never fails:
// an unreadable document is simply not resolved by its marker.
func (w *Workspace) Note(ctx context.Context, path string, opts ...NoteOption) (*Note, error) {
	rel, err := vault.Clean(path)
	if err != nil {
		return nil, &vault.Error{Op: "note", Path: path, Err: err}
	}

	var o noteOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := &Note{ws: w, path: rel}

	if o.explicit {
		n.typ = o.typ

		return n, nil
	}

	n.typ = w.resolve(ctx, w.graph.Load(), rel)

	return n, nil
}

func (w *Workspace) resolve(ctx context.Context, g *Graph, p string) *Type {
	if g == nil {
		return nil
	}

	if t := g.ForPath(p); t != nil {
		return t
	}

	if name := w.markerOf(ctx, p); name != "" {
		if t := g.Get(name); t != nil {
			return t
		}

		logger.Verbose(fmt.Sprintf("%s: type marker names unknown type %q", p, name))
	}

	return g.DefaultType()
}

func (w *Workspace) markerOf(ctx context.Context, p string) string {
	if w.marker == "" {
		return ""
	}

	text, err := w.cfg.Storage.Read(ctx, p)
	if err != nil {
		return ""
	}

	v, ok, err := headerCodec.Get(text, w.marker)
	if err != nil || !ok {
		return ""
	}

	return v
}

// AllNotes returns the notes in the folder of createable type t. With
// subtypes, the folders of every createable descendant are included and
// their notes are typed with that descendant. Only ".md" documents count.
func (w *Workspace) AllNotes(ctx context.Context, t *Type, withSubtypes bool) ([]*Note, error) {
	if t == nil {
		return nil, &ResolutionError{Err: ErrNoSuchType}
	}

	if !t.Createable() {
		return nil, &ResolutionError{Type: t.Name(), Err: ErrNotCreateable}
	}

	owners := []*Type{t}
	if withSubtypes {
		owners = owners[:0]

		for _, s := range t.Graph().Subtypes(t) {
			if s.Createable() {
				owners = append(owners, s)
			}
		}
	}

	folders := make([]string, 0, len(owners))
	byFolder := make(map[string]*Type, len(owners))

	// Types sharing a folder type its notes by declaration order, except
	// that t always keeps its own folder.
	for _, o := range owners {
		if _, seen := byFolder[o.Folder()]; !seen {
			folders = append(folders, o.Folder())
		} else if o != t {
			continue
		}

		byFolder[o.Folder()] = o
	}

	paths, err := w.pathsIn(ctx, folders)
	if err != nil {
		return nil, err
	}

	notes := make([]*Note, 0, len(paths))
	for _, p := range paths {
		notes = append(notes, &Note{ws: w, path: p, typ: byFolder[vault.Parent(p)]})
	}

	return notes, nil
}

func (w *Workspace) pathsIn(ctx context.Context, folders []string) ([]string, error) {
	if w.cfg.Index != nil {
		paths, err := w.cfg.Index.PathsIn(ctx, folders)
		if err == nil {
			return filterMarkdown(paths), nil
		}

		logger.Warning(fmt.Sprintf("index lookup failed, listing folders: %v", err))
	}

	var paths []string

	for _, folder := range folders {
		entries, err := w.cfg.Storage.ListChildren(ctx, folder)
		if err != nil {
			if vault.IsNotFound(err) {
				continue
			}

			return nil, err
		}

		for _, e := range entries {
			if !e.Folder {
				paths = append(paths, e.Path)
			}
		}
	}

	return filterMarkdown(paths), nil
}

func (w *Workspace) track(ctx context.Context, p string) {
	if u, ok := w.cfg.Index.(IndexUpdater); ok {
		if err := u.Track(ctx, p); err != nil {
			logger.Warning(fmt.Sprintf("index track %s: %v", p, err))
		}
	}
}

func (w *Workspace) move(ctx context.Context, from, to string) {
	if u, ok := w.cfg.Index.(IndexUpdater); ok {
		if err := u.Move(ctx, from, to); err != nil {
			logger.Warning(fmt.Sprintf("index move %s -> %s: %v", from, to, err))
		}
	}
}
