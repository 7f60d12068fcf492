package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/typing/pkg/typing"
)

// TypesCmd returns the types command.
func TypesCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("types", flag.ContinueOnError),
		Usage: "types",
		Short: "List declared types",
		Long: `List every type of the active graph in declaration order.

Each line is: name, parents, folder, flags (tab separated, "-" when empty).`,
		Exec: a.withWorkspace(func(_ context.Context, io *IO, _ []string) error {
			for _, t := range a.ws.Graph().Types() {
				io.Printf("%s\t%s\t%s\t%s\n", t.Name(), dash(strings.Join(t.ParentNames(), ",")), dash(t.Folder()), dash(typeFlags(t)))
			}

			return nil
		}),
	}
}

// TypeCmd returns the type command.
func TypeCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("type", flag.ContinueOnError),
		Usage: "type <name>",
		Short: "Show the merged definition of a type",
		Long:  "Show a type with everything it inherits: fields with their declaring type, actions, methods and hooks.",
		Exec: a.withWorkspace(func(_ context.Context, io *IO, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			t, err := a.typeNamed(name)
			if err != nil {
				return err
			}

			printType(io, t)

			return nil
		}),
	}
}

func printType(io *IO, t *typing.Type) {
	io.Println("name=" + t.Name())
	io.Println("parents=" + strings.Join(t.ParentNames(), ","))

	ancestors := make([]string, 0, len(t.Ancestors()))
	for _, anc := range t.Ancestors() {
		ancestors = append(ancestors, anc.Name())
	}

	io.Println("ancestors=" + strings.Join(ancestors, ","))

	if flags := typeFlags(t); flags != "" {
		io.Println("flags=" + flags)
	}

	if t.Folder() != "" {
		io.Println("folder=" + t.Folder())
	}

	if t.Glob() != "" {
		io.Println("glob=" + t.Glob())
	}

	if t.Icon() != "" {
		io.Println("icon=" + t.Icon())
	}

	if p := t.Prefix(); p != nil {
		io.Println("prefix=" + p.Pattern())
	}

	for _, f := range t.Fields() {
		line := "field " + f.Name + " (" + f.Declared + ", " + string(f.Kind) + ")"
		if f.Default != "" {
			line += " default=" + f.Default
		}

		io.Println(line)
	}

	for _, act := range t.Actions() {
		io.Println("action " + act.Name + " -> " + act.Callback + " (" + act.Declared + ")")
	}

	for _, m := range t.Methods() {
		io.Println("method " + m.Name + " -> " + m.Callback + " (" + m.Declared + ")")
	}

	for _, ev := range t.Hooks().Names() {
		cb, _ := t.Hooks().Callback(ev)
		io.Println("hook " + string(ev) + " -> " + cb)
	}
}

func typeFlags(t *typing.Type) string {
	var flags []string

	if t.Abstract() {
		flags = append(flags, "abstract")
	}

	if t.Createable() {
		flags = append(flags, "createable")
	}

	if t.Graph() != nil && t.Graph().DefaultType() == t {
		flags = append(flags, "default")
	}

	return strings.Join(flags, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
