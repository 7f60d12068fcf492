// Package cli implements the typing command line over the typing core.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/untillpro/goutils/logger"

	"github.com/calvinalkan/typing/internal/config"
)

// Run is the main entry point. Returns exit code.
//
// A signal on sigCh cancels the running command; watch uses that to stop.
// sigCh may be nil.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("typing", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	vaultDir := globals.String("vault", "", "Vault `dir` (overrides vault_dir)")
	verbose := globals.BoolP("verbose", "v", false, "Verbose logging")
	help := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	cfg := &config.Config{}
	a := newApp(cfg, in)
	commands := allCommands(cfg, a)

	err := globals.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, commands)

		return 1
	}

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, commands)

		return 0
	}

	if *verbose {
		logger.SetLogLevel(logger.LogLevelVerbose)
	}

	var cmd *Command

	for _, c := range commands {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, globals, commands)

		return 1
	}

	loaded, err := config.Load(config.LoadInput{
		WorkDirOverride:  *workDir,
		ConfigPath:       *configPath,
		VaultDirOverride: *vaultDir,
		Env:              env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	*cfg = loaded

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	code := cmd.Run(ctx, NewIO(in, out, errOut), rest[1:])

	err = a.close()
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	return code
}

func allCommands(cfg *config.Config, a *app) []*Command {
	return []*Command{
		TypesCmd(a),
		TypeCmd(a),
		ShowCmd(a),
		GetCmd(a),
		SetCmd(a),
		NewCmd(a),
		RenameCmd(a),
		LsCmd(a),
		RunCmd(a),
		CallCmd(a),
		CheckCmd(a),
		ReindexCmd(a),
		WatchCmd(a),
		PrintConfigCmd(cfg),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, `typing - typed notes in a markdown vault

Usage: typing [options] <command> [args]

Options:`)

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
