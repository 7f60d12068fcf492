package fields

import (
	"context"
	"errors"
)

// Status is the outcome of a field read.
type Status uint8

// Status values.
const (
	Absent Status = iota
	Found
	Failed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

// Lookup is the explicit result of an [Accessor.Get].
type Lookup struct {
	Value  string
	Status Status
	// Err is set when Status is Failed.
	Err error
}

// OK reports whether the field was found.
func (l Lookup) OK() bool {
	return l.Status == Found
}

// Accessor reads and writes named fields of one document.
//
// Get never returns an error directly: failures are reported through
// [Lookup.Status], isolated to the one field.
type Accessor interface {
	Get(ctx context.Context, name string) Lookup
	Set(ctx context.Context, name, value string) error
}

// Selector returns the codec backing a field. A nil Selector uses [Auto].
type Selector func(name string) Codec

func (s Selector) codec(name string) Codec {
	if s == nil {
		return Auto{}
	}

	if c := s(name); c != nil {
		return c
	}

	return Auto{}
}

// Store is the subset of document storage accessors need.
type Store interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, text string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Document accesses fields of a stored document. Every call reads the
// current text; Set writes the whole document back.
//
// Document does no locking. Concurrent writers to the same path race with
// last-write-wins semantics.
type Document struct {
	store    Store
	path     string
	selector Selector
	// missing reports whether a read error means the document does not exist.
	missing func(error) bool
}

// DocumentOption configures a [Document].
type DocumentOption func(*Document)

// WithNotFound sets the predicate that classifies store read errors as a
// missing document. Fields of a missing document read as [Absent].
func WithNotFound(isNotFound func(error) bool) DocumentOption {
	return func(d *Document) {
		d.missing = isNotFound
	}
}

// NewDocument binds an accessor to path in store.
func NewDocument(store Store, path string, selector Selector, opts ...DocumentOption) *Document {
	d := &Document{store: store, path: path, selector: selector}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Path returns the bound document path.
func (d *Document) Path() string { return d.path }

// Get implements [Accessor].
func (d *Document) Get(ctx context.Context, name string) Lookup {
	text, err := d.store.Read(ctx, d.path)
	if err != nil {
		if d.missing != nil && d.missing(err) {
			return Lookup{Status: Absent}
		}

		return Lookup{Status: Failed, Err: &Error{Field: name, Path: d.path, Err: err}}
	}

	return lookup(d.selector.codec(name), text, name, d.path)
}

// Set implements [Accessor].
func (d *Document) Set(ctx context.Context, name, value string) error {
	text, err := d.store.Read(ctx, d.path)
	if err != nil {
		return &Error{Field: name, Path: d.path, Err: err}
	}

	out, err := d.selector.codec(name).Set(text, name, value)
	if err != nil {
		return &Error{Field: name, Path: d.path, Err: err}
	}

	if out == text {
		return nil
	}

	err = d.store.Write(ctx, d.path, out)
	if err != nil {
		return &Error{Field: name, Path: d.path, Err: err}
	}

	return nil
}

// Buffer accesses fields of an in-memory document, for composing text that
// does not exist in storage yet. Semantics match [Document].
type Buffer struct {
	text     string
	selector Selector
}

// NewBuffer returns a buffer accessor over text.
func NewBuffer(text string, selector Selector) *Buffer {
	return &Buffer{text: text, selector: selector}
}

// Text returns the current buffer contents.
func (b *Buffer) Text() string { return b.text }

// Get implements [Accessor].
func (b *Buffer) Get(_ context.Context, name string) Lookup {
	return lookup(b.selector.codec(name), b.text, name, "")
}

// Set implements [Accessor].
func (b *Buffer) Set(_ context.Context, name, value string) error {
	out, err := b.selector.codec(name).Set(b.text, name, value)
	if err != nil {
		return &Error{Field: name, Err: err}
	}

	b.text = out

	return nil
}

// Select returns a [Document] accessor when path exists in store and an
// empty [Buffer] otherwise.
func Select(ctx context.Context, store Store, path string, selector Selector, opts ...DocumentOption) (Accessor, error) {
	exists, err := store.Exists(ctx, path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	if !exists {
		return NewBuffer("", selector), nil
	}

	return NewDocument(store, path, selector, opts...), nil
}

func lookup(codec Codec, text, name, path string) Lookup {
	value, ok, err := codec.Get(text, name)

	switch {
	case ok:
		return Lookup{Value: value, Status: Found}
	case err != nil:
		return Lookup{Status: Failed, Err: &Error{Field: name, Path: path, Err: err}}
	default:
		return Lookup{Status: Absent}
	}
}

// IsAccessError reports whether err came from a field accessor.
func IsAccessError(err error) bool {
	var fe *Error

	return errors.As(err, &fe)
}

// Compile-time interface checks.
var (
	_ Accessor = (*Document)(nil)
	_ Accessor = (*Buffer)(nil)
	_ Codec    = Header{}
	_ Codec    = Inline{}
	_ Codec    = Auto{}
)
