package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/queue"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/srs"
)

const studyHelp = `keys: <enter> flip, 1-4 or again/hard/good/easy rate, n next, p prev,
      u undo, s shuffle, q quit (progress is kept for resume)`

func studyFlags(flags *pflag.FlagSet) {
	flags.String("deck", "", "Deck id or name to study")
	flags.Bool("fresh", false, "Start a new session even if one can be resumed")
	flags.Bool("no-new", false, "Leave new cards out")
	flags.StringSlice("skip", nil, "Rating buckets to leave out, e.g. --skip easy,good")
	flags.StringSlice("tag", nil, "Only study cards with these category tags")
	flags.Int("from", 0, "Start new cards from this card number")
	flags.Bool("all", false, "Include reviews that are not yet due")
	flags.Bool("reverse", false, "Show the translation first")
}

func filtersFrom(flags *pflag.FlagSet) (domain.Filters, error) {
	f := domain.AllFilters()
	noNew, _ := flags.GetBool("no-new")
	f.New = !noNew
	skip, _ := flags.GetStringSlice("skip")
	for _, name := range skip {
		r, ok := domain.ParseRating(name)
		if !ok {
			return f, fmt.Errorf("unknown rating bucket %q", name)
		}
		switch r {
		case domain.Again:
			f.Again = false
		case domain.Hard:
			f.Hard = false
		case domain.Good:
			f.Good = false
		case domain.Easy:
			f.Easy = false
		}
	}
	f.Tags, _ = flags.GetStringSlice("tag")
	f.StartOrdinal, _ = flags.GetInt("from")
	f.IgnoreDueDate, _ = flags.GetBool("all")
	f.Reverse, _ = flags.GetBool("reverse")
	return f, nil
}

func runStudy(ctx context.Context, a *app, flags *pflag.FlagSet, stdin io.Reader, stdout io.Writer) error {
	ref, _ := flags.GetString("deck")
	if ref == "" {
		return errors.New("study needs --deck")
	}
	deck, err := a.findDeck(ref)
	if err != nil {
		return err
	}
	f, err := filtersFrom(flags)
	if err != nil {
		return err
	}
	fresh, _ := flags.GetBool("fresh")

	m := a.study.Machine()
	resumed := false
	if !fresh {
		if _, err := m.Resume(deck.ID); err == nil {
			resumed = true
		} else if !errors.Is(err, session.ErrNoSessionFound) {
			return err
		}
	}
	if !resumed {
		if _, err := a.study.Start(deck.ID, f); err != nil {
			if errors.Is(err, queue.ErrNoMatchingCards) {
				fmt.Fprintf(stdout, "Nothing to study in %s right now.\n", deck.Name)
				return nil
			}
			return err
		}
	}

	st := m.State()
	verb := "Starting"
	if resumed {
		verb = "Resuming"
	}
	fmt.Fprintf(stdout, "%s %s: %s cards\n%s\n", verb, deck.Name, humanize.Comma(int64(st.Remaining())), studyHelp)

	settings, err := a.study.Settings(deck.ID)
	if err != nil {
		return err
	}
	r := repl{a: a, m: m, out: stdout, hideTransliteration: settings.HideTransliteration}
	r.show()
	in := bufio.NewScanner(stdin)
	for m.Phase() == session.Active && ctx.Err() == nil {
		fmt.Fprint(stdout, "> ")
		if !in.Scan() {
			break
		}
		if quit := r.handle(strings.TrimSpace(strings.ToLower(in.Text()))); quit {
			break
		}
	}
	if err := in.Err(); err != nil {
		return err
	}
	if m.Phase() == session.Complete {
		sum := m.State().Stats.Summary()
		fmt.Fprintf(stdout, "\nSession complete: %d reviews, %d%% accuracy (again %d, hard %d, good %d, easy %d)\n",
			sum.Total, sum.AccuracyPercent, sum.Again, sum.Hard, sum.Good, sum.Easy)
	}
	return nil
}

type repl struct {
	a   *app
	m   *session.Machine
	out io.Writer

	hideTransliteration bool
}

// handle runs one command line and reports whether the loop should stop.
func (r *repl) handle(line string) bool {
	switch line {
	case "q", "quit":
		return true
	case "", "f", "flip":
		r.m.Flip()
		r.show()
		return false
	case "u", "undo":
		ok, err := r.m.Undo()
		r.report(ok, err, "nothing to undo")
	case "n", "next":
		ok, err := r.m.Navigate(session.Next)
		r.report(ok, err, "cannot move forward")
	case "p", "prev":
		ok, err := r.m.Navigate(session.Prev)
		r.report(ok, err, "cannot move back")
	case "s", "shuffle":
		ok, err := r.m.ShuffleUpcoming()
		r.report(ok, err, "not enough cards left to shuffle")
	default:
		rating, ok := domain.ParseRating(line)
		if !ok {
			fmt.Fprintln(r.out, studyHelp)
			return false
		}
		out, err := r.m.Rate(rating)
		if err != nil {
			r.a.logger.Warn("Rating applied with errors", "error", err)
		}
		if out.Applied {
			fmt.Fprintf(r.out, "%s: next review in %s\n", rating, srs.FormatInterval(out.Statistics.Interval))
		}
	}
	if r.m.Phase() == session.Active {
		r.show()
	}
	return false
}

func (r *repl) report(ok bool, err error, refused string) {
	if err != nil {
		r.a.logger.Warn("Session change applied with errors", "error", err)
	}
	if !ok {
		fmt.Fprintln(r.out, refused)
	}
}

// show prints the current card, front or back depending on the flip state.
func (r *repl) show() {
	card, ok := r.m.Current()
	if !ok {
		return
	}
	st := r.m.State()
	front, back := card.Text, card.Translation
	if st.ReverseMode {
		front, back = back, front
	}
	fmt.Fprintf(r.out, "\n[%d/%d] %s\n", st.CurrentIndex+1, len(st.Queue), front)
	if !r.m.Flipped() {
		return
	}
	if card.Reading != "" {
		fmt.Fprintf(r.out, "  %s\n", card.Reading)
	}
	if card.Transliteration != "" && !r.hideTransliteration {
		fmt.Fprintf(r.out, "  %s\n", card.Transliteration)
	}
	fmt.Fprintf(r.out, "  = %s\n", back)

	var prior *domain.CardStatistics
	if s, ok := r.a.store.Statistics(st.DeckID, card.ID); ok {
		prior = &s
	}
	preview := srs.Preview(prior, r.a.now())
	var labels []string
	for _, rt := range domain.Ratings {
		labels = append(labels, fmt.Sprintf("%d %s (%s)", rt, rt, srs.FormatInterval(preview[rt])))
	}
	fmt.Fprintf(r.out, "  %s\n", strings.Join(labels, "  "))
}
