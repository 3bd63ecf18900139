// Command knolstudy studies markdown flashcard decks with spaced repetition.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/knolstudy/internal/config"
)

const usage = `usage: knolstudy <command> [flags]

commands:
  serve                 run the JSON API
  sync                  reconcile every deck source
  add-source <path|url> register a local directory or git repository as a deck
  study                 study a deck in the terminal
  stats                 show deck and streak statistics

Run "knolstudy <command> --help" for the flags of a command.
`

type command struct {
	flags func(*pflag.FlagSet)
	run   func(ctx context.Context, a *app, flags *pflag.FlagSet, stdin io.Reader, stdout io.Writer) error
}

var commands = map[string]command{
	"serve":      {run: runServe},
	"sync":       {run: runSync},
	"add-source": {flags: addSourceFlags, run: runAddSource},
	"study":      {flags: studyFlags, run: runStudy},
	"stats":      {run: runStats},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "knolstudy:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}

	flags := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	flags.SetOutput(stderr)
	config.RegisterFlags(flags)
	if cmd.flags != nil {
		cmd.flags(flags)
	}
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	logger := cfg.Logger(stderr)

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return cmd.run(ctx, a, flags, stdin, stdout)
}
