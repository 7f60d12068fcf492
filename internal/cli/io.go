package cli

import (
	"fmt"
	"io"
)

// IO is the terminal a command talks to.
//
// Results go to out. Problems that do not abort the command are collected
// with [IO.Warn] and written to errOut twice: before the first line of
// output, so they precede results scrolling by, and again from
// [IO.Finish], so they survive piping through head or tail. A command that
// warned exits 1 even though its output is complete; `typing check` relies
// on this to fail on broken notes.
type IO struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	warnings []string
	flushed  bool
}

// NewIO returns an IO reading prompts from in.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	return &IO{in: in, out: out, errOut: errOut}
}

// Warn records a note-level problem and the fix to suggest for it.
func (o *IO) Warn(issue, fix string) {
	o.warnings = append(o.warnings, issue+": "+fix)
}

// Println writes a result line.
func (o *IO) Println(a ...any) {
	o.leadingWarnings()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted results.
func (o *IO) Printf(format string, a ...any) {
	o.leadingWarnings()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes a diagnostic line.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish repeats the warnings after the results and returns the exit code.
func (o *IO) Finish() int {
	o.leadingWarnings()
	o.writeWarnings()

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) leadingWarnings() {
	if o.flushed || len(o.warnings) == 0 {
		return
	}

	o.flushed = true
	o.writeWarnings()
}

func (o *IO) writeWarnings() {
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}
