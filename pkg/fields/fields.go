// Package fields reads and writes named values inside free-form markdown
// text.
//
// Two on-text representations are supported:
//
//	---
//	author: Ursula K. Le Guin     <- header block (see [Header])
//	year: "1969"
//	---
//	# The Left Hand of Darkness
//
//	rating:: 5                    <- line marker (see [Inline])
//	Read it in [season:: winter]. <- bracket marker
//
// A [Codec] is a pure text transformation: Get extracts a value, Set returns
// the text with exactly one representation of the field holding the new
// value. Unrelated text is never altered.
//
// An [Accessor] binds codecs to a document: [Document] goes through a
// [Store], [Buffer] edits an in-memory string. Accessor reads report an
// explicit [Lookup] instead of failing, so one malformed field never hides
// the rest of a document.
package fields

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidName     = errors.New("invalid field name")
	ErrMalformedHeader = errors.New("malformed header block")
	ErrMalformedValue  = errors.New("malformed field value")
	ErrNotScalar       = errors.New("field is not a scalar")
	ErrUnrepresentable = errors.New("value cannot be represented")
	ErrUnknownKind     = errors.New("unknown accessor kind")
)

// Kind names a field representation.
type Kind string

// Kind values.
const (
	KindAuto   Kind = "auto"
	KindHeader Kind = "header"
	KindInline Kind = "inline"
)

// ParseKind maps a configuration string to a Kind. The empty string means
// [KindAuto]; "frontmatter" is accepted as an alias for [KindHeader].
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindAuto):
		return KindAuto, nil
	case string(KindHeader), "frontmatter":
		return KindHeader, nil
	case string(KindInline):
		return KindInline, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Codec reads and writes one named field in document text.
//
// Get returns ("", false, nil) when the field is absent. Set returns the
// updated text; on error the input text must be considered unchanged.
type Codec interface {
	Get(text, name string) (string, bool, error)
	Set(text, name, value string) (string, error)
}

// CodecFor returns the codec for a representation kind.
func CodecFor(kind Kind) Codec {
	switch kind {
	case KindHeader:
		return Header{}
	case KindInline:
		return Inline{}
	default:
		return Auto{}
	}
}

// Error carries field and document context for a failed field operation.
//
//	read notes/a.md: permission denied (field=author path=notes/a.md)
type Error struct {
	Field string
	Path  string
	Err   error
}

// Error formats as "<cause> (field=X path=Y)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var parts []string

	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}

	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	if len(parts) == 0 {
		return cause
	}

	suffix := "(" + strings.Join(parts, " ") + ")"
	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}

	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidName, name)
	}

	if strings.ContainsAny(name, ":\n\r[]()") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}

	return nil
}

// splitLines splits text on "\n". Joining the result with "\n" restores the
// input byte for byte.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// bare strips a trailing carriage return for comparisons.
func bare(line string) string {
	return strings.TrimSuffix(line, "\r")
}

// crOf returns "\r" when line is CRLF-terminated so rewrites keep the style.
func crOf(line string) string {
	if strings.HasSuffix(line, "\r") {
		return "\r"
	}

	return ""
}
