package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/selector"
	"github.com/conorfennell/knolstudy/internal/streak"
)

func runStats(_ context.Context, a *app, _ *pflag.FlagSet, _ io.Reader, stdout io.Writer) error {
	dash, err := a.study.Dashboard()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DECK\tCARDS\tNEW\tDUE\tLEARNING\tMASTERED\tNEW TODAY\tSYNCED")
	for _, d := range dash.Decks {
		o := d.Overview
		synced := "never"
		if !d.Deck.LastScanned.IsZero() {
			synced = humanize.Time(d.Deck.LastScanned)
		}
		name := d.Deck.Name
		if d.Pending {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d%%\t%d\t%s\n",
			name,
			humanize.Comma(int64(o.Total)),
			humanize.Comma(int64(o.New)),
			humanize.Comma(int64(o.Due)),
			humanize.Comma(int64(o.Learning)),
			o.MasteredPercent,
			o.NewAllowance,
			synced,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts, err := a.db.ReviewCounts(selector.WeekStart(a.now()))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nStreak: %s\n", plural(dash.User.Streak, "day"))
	fmt.Fprintf(stdout, "Today: %d/%d reviews (%d%% of goal)\n", dash.TodayReviews, dash.DailyGoal, dash.GoalProgress)
	fmt.Fprint(stdout, "This week:")
	for _, r := range domain.Ratings {
		fmt.Fprintf(stdout, " %s %d", r, counts[r])
	}
	fmt.Fprintln(stdout)
	if dash.User.LastReviewDate != "" && dash.User.LastReviewDate != streak.Today(a.now()) {
		fmt.Fprintf(stdout, "Last review: %s\n", dash.User.LastReviewDate)
	}
	return nil
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return humanize.Comma(int64(n)) + " " + unit + "s"
}
