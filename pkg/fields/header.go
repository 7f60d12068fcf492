package fields

import (
	"fmt"
	"strconv"
	"strings"
)

const headerDelimiter = "---"

// Header stores fields as "key: value" entries of a header block delimited
// by "---" lines at the very start of the document.
//
// Reads are lenient: only the requested entry is decoded, so unsupported
// YAML elsewhere in the block does not affect it. Writes touch only the
// requested entry; other entries, their order, and the body are preserved.
// Values are written as plain scalars when unambiguous and double-quoted
// otherwise, so any single value round-trips.
type Header struct{}

// headerBlock locates the header delimiters within lines.
type headerBlock struct {
	present bool
	open    int
	close   int
}

// bodyStart returns the index of the first line after the header block.
func (b headerBlock) bodyStart() int {
	if !b.present {
		return 0
	}

	return b.close + 1
}

// headerSpan is one top-level entry: the key line plus continuation lines.
type headerSpan struct {
	start int
	end   int // exclusive
	raw   string
}

// HasHeader reports whether text starts with a well-formed header block.
func HasHeader(text string) bool {
	b, err := scanHeader(splitLines(text))

	return err == nil && b.present
}

func scanHeader(lines []string) (headerBlock, error) {
	if len(lines) == 0 || bare(lines[0]) != headerDelimiter {
		return headerBlock{}, nil
	}

	for i := 1; i < len(lines); i++ {
		if bare(lines[i]) == headerDelimiter {
			return headerBlock{present: true, open: 0, close: i}, nil
		}
	}

	return headerBlock{}, fmt.Errorf("%w: missing closing delimiter", ErrMalformedHeader)
}

// findEntries returns every top-level entry named key, in document order.
func findEntries(lines []string, b headerBlock, key string) []headerSpan {
	var spans []headerSpan

	for i := b.open + 1; i < b.close; i++ {
		line := bare(lines[i])
		if !isEntryLine(line) {
			continue
		}

		k, rest, ok := strings.Cut(line, ":")
		if !ok || k != key {
			continue
		}

		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}

		end := i + 1
		for end < b.close && isContinuation(bare(lines[end])) {
			end++
		}

		spans = append(spans, headerSpan{start: i, end: end, raw: strings.TrimSpace(rest)})
	}

	return spans
}

func isEntryLine(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
		return false
	}

	return !strings.HasPrefix(line, "- ") && line != "-"
}

func isContinuation(line string) bool {
	if line == "" {
		return false
	}

	return line[0] == ' ' || line[0] == '\t' || strings.HasPrefix(line, "- ") || line == "-"
}

// Get implements [Codec].
func (Header) Get(text, name string) (string, bool, error) {
	lines := splitLines(text)

	b, err := scanHeader(lines)
	if err != nil {
		return "", false, err
	}

	if !b.present {
		return "", false, nil
	}

	spans := findEntries(lines, b, name)
	if len(spans) == 0 {
		return "", false, nil
	}

	span := spans[0]
	if span.raw == "" {
		if span.end > span.start+1 {
			return "", false, fmt.Errorf("%w: %s", ErrNotScalar, name)
		}

		return "", true, nil
	}

	value, err := decodeScalar(span.raw)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", name, err)
	}

	return value, true, nil
}

// Set implements [Codec]. Duplicate entries for name are collapsed into one
// and inline markers for name are dropped. A document without a header
// block gets one prepended.
func (h Header) Set(text, name, value string) (string, error) {
	out, err := h.setEntry(text, name, value)
	if err != nil {
		return "", err
	}

	out, _ = Inline{}.remove(out, name)

	return out, nil
}

func (Header) setEntry(text, name, value string) (string, error) {
	if err := validateHeaderName(name); err != nil {
		return "", err
	}

	lines := splitLines(text)

	b, err := scanHeader(lines)
	if err != nil {
		return "", err
	}

	entry := name + ": " + encodeScalar(value)

	if !b.present {
		return headerDelimiter + "\n" + entry + "\n" + headerDelimiter + "\n" + text, nil
	}

	spans := findEntries(lines, b, name)
	if len(spans) == 0 {
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:b.close]...)
		out = append(out, entry+crOf(lines[b.close]))
		out = append(out, lines[b.close:]...)

		return joinLines(out), nil
	}

	first := spans[0]
	out := make([]string, 0, len(lines))
	out = append(out, lines[:first.start]...)
	out = append(out, entry+crOf(lines[first.start]))

	cursor := first.end
	for _, dup := range spans[1:] {
		out = append(out, lines[cursor:dup.start]...)
		cursor = dup.end
	}

	out = append(out, lines[cursor:]...)

	return joinLines(out), nil
}

// remove deletes every entry named name. Reports whether anything changed.
func (Header) remove(text, name string) (string, bool, error) {
	lines := splitLines(text)

	b, err := scanHeader(lines)
	if err != nil || !b.present {
		return text, false, err
	}

	spans := findEntries(lines, b, name)
	if len(spans) == 0 {
		return text, false, nil
	}

	out := make([]string, 0, len(lines))
	cursor := 0

	for _, s := range spans {
		out = append(out, lines[cursor:s.start]...)
		cursor = s.end
	}

	out = append(out, lines[cursor:]...)

	return joinLines(out), true, nil
}

// has reports whether the header contains an entry for name.
func (Header) has(text, name string) (bool, error) {
	lines := splitLines(text)

	b, err := scanHeader(lines)
	if err != nil || !b.present {
		return false, err
	}

	return len(findEntries(lines, b, name)) > 0, nil
}

func validateHeaderName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if strings.ContainsAny(name, " \t#") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q is not a valid header key", ErrInvalidName, name)
	}

	return nil
}

func decodeScalar(raw string) (string, error) {
	switch raw[0] {
	case '"':
		end := closingQuote(raw)
		if end < 0 || !onlyComment(raw[end+1:]) {
			return "", fmt.Errorf("%w: %s", ErrMalformedValue, raw)
		}

		v, err := strconv.Unquote(raw[:end+1])
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrMalformedValue, raw)
		}

		return v, nil
	case '\'':
		end := closingQuote(raw)
		if end < 0 || !onlyComment(raw[end+1:]) {
			return "", fmt.Errorf("%w: %s", ErrMalformedValue, raw)
		}

		return strings.ReplaceAll(raw[1:end], "''", "'"), nil
	}

	if i := strings.Index(raw, " #"); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	return raw, nil
}

// closingQuote returns the index of the quote that closes raw[0], or -1.
// Double quotes escape with a backslash, single quotes by doubling.
func closingQuote(raw string) int {
	q := raw[0]

	for i := 1; i < len(raw); i++ {
		switch {
		case q == '"' && raw[i] == '\\':
			i++
		case raw[i] != q:
		case q == '\'' && i+1 < len(raw) && raw[i+1] == '\'':
			i++
		default:
			return i
		}
	}

	return -1
}

// onlyComment reports whether rest, the text after a quoted scalar, is
// empty or a trailing comment.
func onlyComment(rest string) bool {
	trimmed := strings.TrimSpace(rest)
	if trimmed == "" {
		return true
	}

	return strings.HasPrefix(trimmed, "#") && (rest[0] == ' ' || rest[0] == '\t')
}

func encodeScalar(value string) string {
	if needsQuotes(value) {
		return strconv.Quote(value)
	}

	return value
}

// needsQuotes reports whether a plain scalar would read back differently, or
// would be typed as something other than a string by YAML readers.
func needsQuotes(value string) bool {
	if value == "" || strings.TrimSpace(value) != value {
		return true
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return true
	}

	if strings.ContainsRune("-?:,[]{}#&*!|>'\"%@`", rune(value[0])) {
		return true
	}

	if strings.Contains(value, ": ") || strings.Contains(value, " #") || strings.HasSuffix(value, ":") {
		return true
	}

	switch strings.ToLower(value) {
	case "true", "false", "yes", "no", "on", "off", "null", "~":
		return true
	}

	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return true
	}

	return false
}
