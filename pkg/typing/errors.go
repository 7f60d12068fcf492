package typing

import (
	"errors"
	"strings"
)

// Configuration errors. Returned wrapped in [*ConfigError].
var (
	ErrEmptyTypeName           = errors.New("type name is empty")
	ErrDuplicateType           = errors.New("duplicate type")
	ErrUnknownParent           = errors.New("unknown parent type")
	ErrCycle                   = errors.New("inheritance cycle")
	ErrCreateableWithoutFolder = errors.New("createable type has no folder")
	ErrUnknownCallback         = errors.New("unknown callback")
	ErrInvalidPrefix           = errors.New("invalid prefix")
	ErrDuplicateField          = errors.New("duplicate field")
	ErrEmptyFieldName          = errors.New("field name is empty")
	ErrInvalidAccessor         = errors.New("invalid field accessor")
	ErrInvalidGlob             = errors.New("invalid glob")
	ErrUnknownDefaultType      = errors.New("unknown default type")
)

// Resolution errors. Returned wrapped in [*ResolutionError].
var (
	ErrNoSuchType      = errors.New("no such type")
	ErrNotAncestor     = errors.New("not an ancestor")
	ErrAmbiguousParent = errors.New("parent is ambiguous")
)

// Note operation errors.
var (
	ErrUntyped       = errors.New("note is untyped")
	ErrUnknownField  = errors.New("unknown field")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownMethod = errors.New("unknown method")
	ErrUnknownHook   = errors.New("unknown hook event")
	ErrNotCreateable = errors.New("type is not createable")
	ErrAbstract      = errors.New("type is abstract")
	ErrTitleRequired = errors.New("title is required")
)

// ConfigError is a configuration error: the graph could not be built.
//
//	inheritance cycle: Book -> Media -> Book (type=Book)
type ConfigError struct {
	// Type is the offending type name, when known.
	Type string
	Err  error
}

// Error formats as "<cause> (type=X)".
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return withSuffix(causeOf(e.Err), "type", e.Type)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// ResolutionError reports a failed explicit type resolution, such as an
// upcast to a type that is not an ancestor.
type ResolutionError struct {
	Type   string
	Target string
	Err    error
}

// Error formats as "<cause> (type=X target=Y)".
func (e *ResolutionError) Error() string {
	if e == nil {
		return ""
	}

	return withSuffix(causeOf(e.Err), "type", e.Type, "target", e.Target)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// HookError reports a lifecycle hook that failed after the operation it
// observes had already succeeded. The operation is not rolled back.
type HookError struct {
	Hook HookName
	Path string
	Err  error
}

// Error formats as "hook <name>: <cause> (path=P)".
func (e *HookError) Error() string {
	if e == nil {
		return ""
	}

	return withSuffix("hook "+string(e.Hook)+": "+causeOf(e.Err), "path", e.Path)
}

// Unwrap returns the underlying error.
func (e *HookError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// IsConfigError reports whether err is a [*ConfigError].
func IsConfigError(err error) bool {
	var ce *ConfigError

	return errors.As(err, &ce)
}

func causeOf(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

// withSuffix appends "(k=v ...)" for the non-empty pairs.
func withSuffix(cause string, kv ...string) string {
	var parts []string

	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			parts = append(parts, kv[i]+"="+kv[i+1])
		}
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
