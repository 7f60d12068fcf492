package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

var errPromptAborted = errors.New("prompt aborted")

// prompter asks for one value at a time, offering def as the answer.
type prompter interface {
	Prompt(label, def string) (string, error)
	Close() error
}

// newPrompter returns a line editor on the process stdin, and a plain line
// reader for any other input (pipes and tests).
func newPrompter(in io.Reader, errOut io.Writer) prompter {
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)

		return &linerPrompter{state: state}
	}

	if in == nil {
		in = strings.NewReader("")
	}

	return &readerPrompter{r: bufio.NewReader(in), out: errOut}
}

type linerPrompter struct {
	state *liner.State
}

func (p *linerPrompter) Prompt(label, def string) (string, error) {
	line, err := p.state.PromptWithSuggestion(label+": ", def, -1)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", errPromptAborted
		}

		if errors.Is(err, io.EOF) {
			return def, nil
		}

		return "", fmt.Errorf("prompt %s: %w", label, err)
	}

	p.state.AppendHistory(line)

	return line, nil
}

func (p *linerPrompter) Close() error { return p.state.Close() }

// readerPrompter reads answers line by line. An empty answer or end of input
// keeps the default.
type readerPrompter struct {
	r   *bufio.Reader
	out io.Writer
}

func (p *readerPrompter) Prompt(label, def string) (string, error) {
	if def != "" {
		_, _ = fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		_, _ = fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("prompt %s: %w", label, err)
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return def, nil
	}

	return line, nil
}

func (p *readerPrompter) Close() error { return nil }
