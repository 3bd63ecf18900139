package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolstudy/internal/sync"
)

func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("name", "", "Deck name (defaults to the directory or repository name)")
}

func runAddSource(ctx context.Context, a *app, flags *pflag.FlagSet, _ io.Reader, stdout io.Writer) error {
	if flags.NArg() != 1 {
		return errors.New("add-source takes exactly one path or git URL")
	}
	name, _ := flags.GetString("name")
	d, err := a.syncer.AddSource(flags.Arg(0), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added deck %s (%s)\n", d.Name, d.ID)

	r, err := a.syncer.SyncDeck(ctx, d)
	if err != nil {
		return fmt.Errorf("deck added but the first sync failed: %w", err)
	}
	printReport(stdout, d.Name, r)
	return nil
}

func runSync(ctx context.Context, a *app, _ *pflag.FlagSet, _ io.Reader, stdout io.Writer) error {
	reports, err := a.syncer.SyncAll(ctx)
	decks, dbErr := a.db.GetAllDecks()
	names := make(map[string]string, len(decks))
	for _, d := range decks {
		names[d.ID] = d.Name
	}
	for _, r := range reports {
		printReport(stdout, names[r.DeckID], r)
	}
	return errors.Join(err, dbErr)
}

func printReport(w io.Writer, name string, r sync.Report) {
	fmt.Fprintf(w, "%s: %s cards, %s removed, %d errors\n",
		name, humanize.Comma(int64(r.Parsed)), humanize.Comma(int64(r.Deleted)), len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}
