// Package main provides typing, a CLI for typed markdown notes in a vault.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/untillpro/goutils/logger"

	"github.com/calvinalkan/typing/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	// Graph publication is logged at info level; keep it out of command output
	// unless -v is given.
	logger.SetLogLevel(logger.LogLevelWarning)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh))
}
