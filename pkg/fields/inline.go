package fields

import (
	"fmt"
	"strings"
)

// Inline stores fields as "name:: value" markers in the document body.
//
// Recognized forms:
//
//	name:: value          a whole line, optionally indented or bulleted
//	- name:: value
//	text [name:: value]   bracketed, anywhere in a line
//	text (name:: value)
//
// Markers inside the header block and inside fenced code blocks are ignored.
// Values are trimmed on read, so values with surrounding whitespace or line
// breaks cannot be stored inline and Set rejects them with
// [ErrUnrepresentable].
//
// Set rewrites the first marker in place and removes any later duplicates.
// A missing field is inserted after the last line marker of the body, or at
// the top of the body when there is none.
type Inline struct{}

type markerForm uint8

const (
	formLine markerForm = iota
	formBracket
	formParen
)

// marker locates one inline field occurrence.
type marker struct {
	line  int
	form  markerForm
	start int // offset of the marker's first byte in the line
	end   int // exclusive offset after the marker
	// value segment, relative to the line
	vstart int
	vend   int
}

func (m marker) closer() string {
	switch m.form {
	case formBracket:
		return "]"
	case formParen:
		return ")"
	default:
		return ""
	}
}

// bodyLines returns the indices of body lines eligible to hold markers.
func bodyLines(lines []string) []int {
	start := 0

	if b, err := scanHeader(lines); err == nil && b.present {
		start = b.bodyStart()
	}

	idx := make([]int, 0, len(lines)-start)
	fenced := false

	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced

			continue
		}

		if fenced {
			continue
		}

		idx = append(idx, i)
	}

	return idx
}

// lineLead returns the length of indentation plus an optional list bullet.
func lineLead(line string) int {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}

	if i+1 < len(line) && strings.ContainsRune("-*+", rune(line[i])) && line[i+1] == ' ' {
		i += 2
		for i < len(line) && line[i] == ' ' {
			i++
		}
	}

	return i
}

// lineMarkerKey returns the field name of a whole-line marker, if any.
func lineMarkerKey(line string) (string, int, bool) {
	lead := lineLead(line)
	rest := line[lead:]

	key, _, ok := strings.Cut(rest, "::")
	if !ok || key == "" || strings.TrimSpace(key) != key || strings.ContainsAny(key, "[]()`") {
		return "", 0, false
	}

	return key, lead, true
}

// findMarkers returns all markers for name, in document order.
func findMarkers(lines []string, name string) []marker {
	var found []marker

	for _, i := range bodyLines(lines) {
		line := bare(lines[i])

		if key, lead, ok := lineMarkerKey(line); ok && key == name {
			vstart := lead + len(name) + len("::")
			found = append(found, marker{line: i, form: formLine, start: 0, end: len(line), vstart: vstart, vend: len(line)})

			continue
		}

		found = append(found, bracketMarkers(line, i, name)...)
	}

	return found
}

func bracketMarkers(line string, lineIdx int, name string) []marker {
	var found []marker

	for _, open := range []struct {
		token string
		form  markerForm
		close byte
	}{
		{"[" + name + "::", formBracket, ']'},
		{"(" + name + "::", formParen, ')'},
	} {
		offset := 0

		for {
			at := strings.Index(line[offset:], open.token)
			if at < 0 {
				break
			}

			start := offset + at
			vstart := start + len(open.token)

			closeAt := strings.IndexByte(line[vstart:], open.close)
			if closeAt < 0 {
				break
			}

			vend := vstart + closeAt
			found = append(found, marker{line: lineIdx, form: open.form, start: start, end: vend + 1, vstart: vstart, vend: vend})
			offset = vend + 1
		}
	}

	// Keep document order within the line.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].start < found[j-1].start; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}

	return found
}

// Get implements [Codec].
func (Inline) Get(text, name string) (string, bool, error) {
	lines := splitLines(text)

	markers := findMarkers(lines, name)
	if len(markers) == 0 {
		return "", false, nil
	}

	m := markers[0]
	line := bare(lines[m.line])

	return strings.TrimSpace(line[m.vstart:m.vend]), true, nil
}

// Set implements [Codec]. A header entry for name is dropped, unless the
// header block cannot be parsed.
func (i Inline) Set(text, name, value string) (string, error) {
	out, err := i.setMarker(text, name, value)
	if err != nil {
		return "", err
	}

	if cleaned, removed, err := (Header{}).remove(out, name); err == nil && removed {
		out = cleaned
	}

	return out, nil
}

func (Inline) setMarker(text, name, value string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	if err := checkInlineValue(value, ""); err != nil {
		return "", err
	}

	lines := splitLines(text)
	markers := findMarkers(lines, name)

	if len(markers) == 0 {
		return insertLineMarker(lines, name, value), nil
	}

	first := markers[0]
	if err := checkInlineValue(value, first.closer()); err != nil {
		return "", err
	}

	// Edit back to front so earlier offsets stay valid.
	for k := len(markers) - 1; k >= 0; k-- {
		m := markers[k]
		line := lines[m.line]
		cr := crOf(line)
		line = bare(line)

		switch {
		case k == 0:
			lines[m.line] = line[:m.vstart] + encodeInline(value) + line[m.vend:] + cr
		case m.form == formLine:
			lines = append(lines[:m.line], lines[m.line+1:]...)
		default:
			lines[m.line] = line[:m.start] + line[m.end:] + cr
		}
	}

	return joinLines(lines), nil
}

// remove deletes every marker for name. Reports whether anything changed.
func (Inline) remove(text, name string) (string, bool) {
	lines := splitLines(text)

	markers := findMarkers(lines, name)
	if len(markers) == 0 {
		return text, false
	}

	for k := len(markers) - 1; k >= 0; k-- {
		m := markers[k]
		if m.form == formLine {
			lines = append(lines[:m.line], lines[m.line+1:]...)

			continue
		}

		line := lines[m.line]
		lines[m.line] = bare(line)[:m.start] + bare(line)[m.end:] + crOf(line)
	}

	return joinLines(lines), true
}

func (Inline) has(text, name string) bool {
	return len(findMarkers(splitLines(text), name)) > 0
}

// representable reports whether value can be written as a new line marker.
func (Inline) representable(value string) bool {
	return checkInlineValue(value, "") == nil
}

func checkInlineValue(value, closer string) error {
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w inline: contains a line break", ErrUnrepresentable)
	}

	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%w inline: surrounding whitespace", ErrUnrepresentable)
	}

	if closer != "" && strings.Contains(value, closer) {
		return fmt.Errorf("%w inline: contains %q", ErrUnrepresentable, closer)
	}

	return nil
}

func encodeInline(value string) string {
	if value == "" {
		return ""
	}

	return " " + value
}

func insertLineMarker(lines []string, name, value string) string {
	body := bodyLines(lines)
	at := -1

	for _, i := range body {
		if _, _, ok := lineMarkerKey(bare(lines[i])); ok {
			at = i + 1
		}
	}

	if at < 0 {
		at = 0
		if b, err := scanHeader(lines); err == nil && b.present {
			at = b.bodyStart()
		}
	}

	cr := ""
	if at > 0 {
		cr = crOf(lines[at-1])
	}

	entry := name + "::" + encodeInline(value) + cr

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, entry)
	out = append(out, lines[at:]...)

	return joinLines(out)
}
