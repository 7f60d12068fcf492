package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/typing"
)

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <path>",
		Short: "Show a note's type and fields",
		Long: `Resolve the note at <path> and print its type, name parts and schema fields.

Fields that cannot be parsed are reported as warnings and shown as unset.`,
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			n, err := a.note(ctx, firstArg(args))
			if err != nil {
				return err
			}

			return execShow(ctx, io, n)
		}),
	}
}

func execShow(ctx context.Context, io *IO, n *typing.Note) error {
	exists, err := n.Workspace().Storage().Exists(ctx, n.Path())
	if err != nil {
		return err
	}

	if !exists {
		io.Warn(n.Path()+" does not exist", "fields are shown as unset")
	}

	io.Println("path=" + n.Path())
	io.Println("type=" + n.Type().String())

	if n.Prefix() != "" {
		io.Println("prefix=" + n.Prefix())
	}

	io.Println("title=" + n.Title())

	if !n.Typed() {
		return nil
	}

	for _, f := range n.Type().Fields() {
		l := n.Lookup(ctx, f.Name)

		switch l.Status {
		case fields.Found:
			io.Println(f.Name + "=" + l.Value)
		case fields.Failed:
			io.Warn(fmt.Sprintf("%s: %v", n.Path(), l.Err), "fix the field by hand or overwrite it with set")
			io.Println(f.Name + " (unreadable)")
		default:
			io.Println(f.Name + " (unset)")
		}
	}

	return nil
}

// GetCmd returns the get command.
func GetCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("get", flag.ContinueOnError),
		Usage: "get <path> <field>",
		Short: "Print one field value",
		Long:  "Print the value of a schema field. Fails when the field is unset or unreadable.",
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			n, err := a.note(ctx, firstArg(args))
			if err != nil {
				return err
			}

			if len(args) < 2 || args[1] == "" {
				return errFieldRequired
			}

			if !n.Typed() {
				return fmt.Errorf("%w: %s", typing.ErrUntyped, n.Path())
			}

			if _, ok := n.Type().Field(args[1]); !ok {
				return fmt.Errorf("%w: %q on %s", typing.ErrUnknownField, args[1], n.Type())
			}

			l := n.Lookup(ctx, args[1])

			switch l.Status {
			case fields.Found:
				io.Println(l.Value)

				return nil
			case fields.Failed:
				return l.Err
			default:
				return fmt.Errorf("%w: %s", errFieldAbsent, args[1])
			}
		}),
	}
}

// SetCmd returns the set command.
func SetCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("set", flag.ContinueOnError),
		Usage: "set <path> <field=value>...",
		Short: "Set schema fields",
		Long: `Set one or more schema fields of a note. Unchanged values are not rewritten.

Assignments are applied in order; the first failure stops the command.`,
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			n, err := a.note(ctx, firstArg(args))
			if err != nil {
				return err
			}

			if len(args) < 2 {
				return errAssignment
			}

			for _, kv := range args[1:] {
				k, v, err := parseAssignment(kv)
				if err != nil {
					return err
				}

				err = n.SetField(ctx, k, v)
				if err != nil {
					return err
				}
			}

			io.Println(n.Path())

			return nil
		}),
	}
}

// RenameCmd returns the rename command.
func RenameCmd(a *app) *Command {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	fs.StringP("title", "t", "", "New title")
	fs.StringP("prefix", "p", "", "New prefix")
	fs.String("folder", "", "Target folder (vault relative, empty string for the root)")
	fs.String("ext", "", "New extension without the dot")
	fs.String("filename", "", "Full new filename, bypassing prefix and title")
	fs.String("to", "", "Full new path, bypassing every other option")

	return &Command{
		Flags: fs,
		Usage: "rename <path> [flags]",
		Short: "Rename a note, prints the new path",
		Long: `Rename a note. Unspecified parts keep their current value, and the
filename is composed from the type's prefix rule and the title.

Fires the type's on_rename hook after the move.`,
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			n, err := a.note(ctx, firstArg(args))
			if err != nil {
				return err
			}

			var opts []typing.RenameOption

			for _, opt := range []struct {
				flag string
				fn   func(string) typing.RenameOption
			}{
				{"title", typing.WithTitle},
				{"prefix", typing.WithPrefix},
				{"folder", typing.WithFolder},
				{"ext", typing.WithExtension},
				{"filename", typing.WithFilename},
				{"to", typing.WithPath},
			} {
				if fs.Changed(opt.flag) {
					v, _ := fs.GetString(opt.flag)
					opts = append(opts, opt.fn(v))
				}
			}

			before := n.Path()

			err = n.Rename(ctx, opts...)
			if err != nil && n.Path() == before {
				return err
			}

			io.Println(n.Path())

			if err != nil {
				io.Warn(err.Error(), "the note was renamed; check the hook")
			}

			return nil
		}),
	}
}

// LsCmd returns the ls command.
func LsCmd(a *app) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.BoolP("subtypes", "s", false, "Include notes of createable subtypes")
	fs.StringArrayP("field", "f", nil, "Append the value of this field to each line (repeatable)")

	return &Command{
		Flags: fs,
		Usage: "ls <type> [flags]",
		Short: "List notes of a type",
		Long: `List the notes in the folder of a createable type, one path per line.

With --field, the named field values follow the path, tab separated.`,
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			t, err := a.typeNamed(firstArg(args))
			if err != nil {
				return err
			}

			withSubtypes, _ := fs.GetBool("subtypes")
			columns, _ := fs.GetStringArray("field")

			notes, err := a.ws.AllNotes(ctx, t, withSubtypes)
			if err != nil {
				return err
			}

			for _, n := range notes {
				cols := []string{n.Path()}

				for _, c := range columns {
					v, _ := n.Field(ctx, c)
					cols = append(cols, v)
				}

				io.Println(strings.Join(cols, "\t"))
			}

			return nil
		}),
	}
}

// RunCmd returns the run command.
func RunCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("run", flag.ContinueOnError),
		Usage: "run <path> <action>",
		Short: "Run a type action on a note",
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			n, err := a.note(ctx, firstArg(args))
			if err != nil {
				return err
			}

			if len(args) < 2 || args[1] == "" {
				return errActionRequired
			}

			err = n.RunAction(ctx, args[1])
			if err != nil {
				return err
			}

			io.Println(n.Path())

			return nil
		}),
	}
}

// CallCmd returns the call command.
func CallCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("call", flag.ContinueOnError),
		Usage: "call <path> <method> [args...]",
		Short: "Call a type method and print its result",
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, args []string) error {
			n, err := a.note(ctx, firstArg(args))
			if err != nil {
				return err
			}

			if len(args) < 2 || args[1] == "" {
				return errMethodRequired
			}

			v, err := n.CallMethod(ctx, args[1], args[2:]...)
			if err != nil {
				return err
			}

			io.Println(fmt.Sprint(v))

			return nil
		}),
	}
}

func parseAssignment(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return "", "", fmt.Errorf("%w: %q", errAssignment, kv)
	}

	return strings.TrimSpace(k), v, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
