package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/typing/pkg/typing"
)

// NewCmd returns the new command.
func NewCmd(a *app) *Command {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.StringP("prefix", "p", "", "Prefix (generated from the type's prefix layout when omitted)")
	fs.StringArrayP("field", "f", nil, "Initial field value as key=value (repeatable)")
	fs.StringP("text", "t", "", "Initial body text")
	fs.BoolP("interactive", "i", false, "Prompt for the title and every schema field")

	return &Command{
		Flags: fs,
		Usage: "new <type> [title] [flags]",
		Short: "Create a note, prints its path",
		Long: `Create a note of a createable type in the type's folder.

Schema fields start at their defaults; --field overrides them. With -i, each
value is prompted for with the current value as the suggestion. If the type
has a create hook, the hook takes over and nothing is printed.`,
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			return execNew(ctx, io, a, fs, args)
		}),
	}
}

func execNew(ctx context.Context, io *IO, a *app, fs *flag.FlagSet, args []string) error {
	t, err := a.typeNamed(firstArg(args))
	if err != nil {
		return err
	}

	initial := &typing.NoteState{Fields: map[string]string{}}

	if len(args) > 1 {
		initial.Title = args[1]
	}

	initial.Prefix, _ = fs.GetString("prefix")
	initial.Text, _ = fs.GetString("text")

	assignments, _ := fs.GetStringArray("field")
	for _, kv := range assignments {
		k, v, err := parseAssignment(kv)
		if err != nil {
			return err
		}

		initial.Fields[k] = v
	}

	if interactive, _ := fs.GetBool("interactive"); interactive {
		err = promptState(io, t, initial)
		if err != nil {
			return err
		}
	}

	state, handled, err := a.ws.PrepareNew(ctx, t, initial)
	if err != nil {
		return err
	}

	if handled {
		return nil
	}

	n, err := a.ws.Create(ctx, t, state)
	if n == nil {
		return err
	}

	io.Println(n.Path())

	var hookErr *typing.HookError
	if errors.As(err, &hookErr) {
		io.Warn(hookErr.Error(), "the note was created; check the hook")
	}

	return nil
}

// promptState asks for the title and each schema field of t, suggesting the
// values already in s.
func promptState(io *IO, t *typing.Type, s *typing.NoteState) error {
	p := newPrompter(io.in, io.errOut)
	defer func() { _ = p.Close() }()

	title, err := p.Prompt("title", s.Title)
	if err != nil {
		return err
	}

	s.Title = title

	for _, f := range t.Fields() {
		def, ok := s.Fields[f.Name]
		if !ok {
			def = f.Default
		}

		v, err := p.Prompt(fmt.Sprintf("%s (%s)", f.Name, f.Declared), def)
		if err != nil {
			return err
		}

		s.Fields[f.Name] = v
	}

	return nil
}
