package fields

import (
	"errors"
)

// Auto picks the representation per field and document.
//
// Get prefers the header block and falls back to inline markers. Set keeps a
// field where it already lives; a new field goes to Prefer (the header block
// by default), falling back to the header when the value cannot be stored
// inline. After Set the field exists in exactly one representation.
type Auto struct {
	// Prefer is the representation for fields not yet present. Zero value
	// means [KindHeader].
	Prefer Kind
}

// Get implements [Codec].
func (Auto) Get(text, name string) (string, bool, error) {
	value, ok, headerErr := Header{}.Get(text, name)
	if ok {
		return value, true, nil
	}

	value, ok, inlineErr := Inline{}.Get(text, name)
	if ok {
		return value, true, nil
	}

	return "", false, errors.Join(headerErr, inlineErr)
}

// Set implements [Codec].
func (a Auto) Set(text, name, value string) (string, error) {
	inHeader, err := Header{}.has(text, name)
	if err != nil {
		// A broken header block cannot be edited safely; only a field that
		// already lives inline stays writable.
		if (Inline{}).has(text, name) {
			return Inline{}.Set(text, name, value)
		}

		return "", err
	}

	if inHeader {
		return Header{}.Set(text, name, value)
	}

	if (Inline{}).has(text, name) {
		out, err := Inline{}.Set(text, name, value)
		if !errors.Is(err, ErrUnrepresentable) {
			return out, err
		}

		return Header{}.Set(text, name, value)
	}

	if a.Prefer == KindInline && (Inline{}).representable(value) {
		return Inline{}.Set(text, name, value)
	}

	return Header{}.Set(text, name, value)
}

