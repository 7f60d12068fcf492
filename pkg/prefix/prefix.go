// Package prefix splits note filenames into a structured leading segment and
// a title, and composes them back.
//
// A [Prefix] is described by a regular expression that the leading segment
// must match in full, and a delimiter that separates it from the title:
//
//	p := prefix.MustNew(`P\d+`)
//	p.Parse("P1 Foo")      // {Prefix: "P1", Name: "Foo"}
//	p.Compose("P1", "Bar") // "P1 Bar"
//	p.Parse("Foo")         // {Prefix: "", Name: "Foo"}
//
// Parse never fails: input that does not match is treated as a bare title.
// For any prefix/name pair that contains no delimiter-reserved text,
// Parse(Compose(p, n)) returns {p, n}.
package prefix

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultDelimiter separates prefix and title when none is configured.
const DefaultDelimiter = " "

var (
	ErrEmptyPattern   = errors.New("prefix pattern is empty")
	ErrInvalidPattern = errors.New("invalid prefix pattern")
	ErrEmptyDelimiter = errors.New("prefix delimiter is empty")
	ErrLayoutMismatch = errors.New("prefix layout output does not match pattern")
)

// Parts is the decomposed form of a filename (without extension).
type Parts struct {
	Prefix string
	Name   string
}

// Prefix is an immutable filename prefix rule. Safe for concurrent use.
type Prefix struct {
	pattern   string
	delimiter string
	layout    string

	// whole matches a fullname that consists only of a prefix.
	whole *regexp.Regexp
	// split matches "<prefix><delimiter><name>".
	split *regexp.Regexp
}

// Option configures a [Prefix].
type Option func(*options)

type options struct {
	delimiter string
	layout    string
}

// WithDelimiter sets the text placed between prefix and title.
func WithDelimiter(delimiter string) Option {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// WithLayout sets a [time.Layout]-style format used by [Prefix.Generate].
// The generated text must match the pattern.
func WithLayout(layout string) Option {
	return func(o *options) {
		o.layout = layout
	}
}

// New compiles a prefix rule. The pattern is anchored implicitly; it must not
// be empty.
func New(pattern string, opts ...Option) (*Prefix, error) {
	o := options{delimiter: DefaultDelimiter}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(&o)
	}

	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	if o.delimiter == "" {
		return nil, ErrEmptyDelimiter
	}

	whole, err := regexp.Compile(`^(?s:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	split, err := regexp.Compile(`^(?s:(` + pattern + `))` + regexp.QuoteMeta(o.delimiter) + `(?s:(.*))$`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	p := &Prefix{
		pattern:   pattern,
		delimiter: o.delimiter,
		layout:    o.layout,
		whole:     whole,
		split:     split,
	}

	if p.layout != "" {
		sample := time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC).Format(p.layout)
		if !whole.MatchString(sample) {
			return nil, fmt.Errorf("%w: layout %q produces %q", ErrLayoutMismatch, p.layout, sample)
		}
	}

	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(pattern string, opts ...Option) *Prefix {
	p, err := New(pattern, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

// Pattern returns the source pattern.
func (p *Prefix) Pattern() string { return p.pattern }

// Delimiter returns the prefix/title separator.
func (p *Prefix) Delimiter() string { return p.delimiter }

// Layout returns the generation layout, or "" if none.
func (p *Prefix) Layout() string { return p.layout }

// Parse splits fullname into prefix and name. A fullname that matches no
// prefix yields {"", fullname}.
func (p *Prefix) Parse(fullname string) Parts {
	if p == nil {
		return Parts{Name: fullname}
	}

	// The prefix group opens first and the title group last; groups of the
	// pattern itself sit in between.
	if m := p.split.FindStringSubmatch(fullname); m != nil {
		return Parts{Prefix: m[1], Name: m[len(m)-1]}
	}

	if p.whole.MatchString(fullname) {
		return Parts{Prefix: fullname}
	}

	return Parts{Name: fullname}
}

// Compose joins prefix and name. Either side may be empty, in which case no
// delimiter is written.
func (p *Prefix) Compose(prefix, name string) string {
	delimiter := DefaultDelimiter
	if p != nil {
		delimiter = p.delimiter
	}

	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + delimiter + name
	}
}

// Matches reports whether s is a valid prefix on its own.
func (p *Prefix) Matches(s string) bool {
	return p != nil && p.whole.MatchString(s)
}

// Generate renders a fresh prefix for t using the layout. Returns "" when no
// layout is configured.
func (p *Prefix) Generate(t time.Time) string {
	if p == nil || p.layout == "" {
		return ""
	}

	return t.Format(p.layout)
}

// String implements fmt.Stringer.
func (p *Prefix) String() string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("prefix(")
	b.WriteString(p.pattern)

	if p.delimiter != DefaultDelimiter {
		fmt.Fprintf(&b, ", delimiter=%q", p.delimiter)
	}

	if p.layout != "" {
		fmt.Fprintf(&b, ", layout=%q", p.layout)
	}

	b.WriteString(")")

	return b.String()
}
