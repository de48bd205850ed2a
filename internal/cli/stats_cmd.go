package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/fokus/internal/cli/formatter"
	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/alexanderramin/fokus/internal/stats"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show today's focus dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			now := app.now()
			loc := app.location()

			if _, err := app.Stats.RolloverIfNeeded(ctx, now); err != nil {
				return err
			}
			agg, err := app.Stats.LoadAggregates(ctx, now)
			if err != nil {
				return err
			}

			today := domain.DayKeyAt(now, loc)
			from := domain.DayKeyAt(now.In(loc).AddDate(0, 0, -(stats.WeeklyWindowDays-1)), loc)
			days, err := app.Stats.GetRange(ctx, from, today)
			if err != nil {
				return err
			}

			cmd.Println(formatter.FormatAggregates(agg, stats.Insights(days, loc)))
			return nil
		},
	}

	cmd.AddCommand(
		newStatsRangeCmd(app),
		newStatsWeekCmd(app),
		newStatsMonthCmd(app),
		newStatsYearCmd(app),
	)

	return cmd
}

func newStatsRangeCmd(app *App) *cobra.Command {
	var (
		from, to string
		detail   bool
		rolling  int
	)

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Show daily focus totals for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if to == "" {
				to = domain.DayKeyAt(app.now(), app.location())
			}
			if from == "" {
				var err error
				from, err = domain.AddDays(to, -(stats.WeeklyWindowDays - 1), app.location())
				if err != nil {
					return err
				}
			}
			if rolling < 0 {
				return fmt.Errorf("invalid rolling window %d", rolling)
			}

			if detail {
				breakdown, err := app.Stats.GetDailyBreakdown(ctx, from, to)
				if err != nil {
					return err
				}
				cmd.Println(formatter.FormatBreakdown(breakdown))
				return nil
			}

			days, err := app.Stats.GetRange(ctx, from, to)
			if err != nil {
				return err
			}
			cmd.Println(formatter.FormatDays(days))
			if rolling > 0 {
				averages := stats.RollingAverage(days, rolling)
				cmd.Printf("\n%s\n", formatter.FormatRollingAverages(days, averages, rolling))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start day (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "End day (YYYY-MM-DD, inclusive; defaults to today)")
	cmd.Flags().BoolVar(&detail, "detail", false, "Per-day session counts, averages and longest session")
	cmd.Flags().IntVar(&rolling, "rolling", 0, "Append the trailing N-day average for each day")

	return cmd
}

func newStatsWeekCmd(app *App) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the 7-day window and its daily average",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			loc := app.location()
			if start == "" {
				now := app.now().In(loc)
				start = domain.DayKeyAt(now.AddDate(0, 0, -(stats.WeeklyWindowDays-1)), loc)
			}

			end, err := domain.AddDays(start, stats.WeeklyWindowDays-1, loc)
			if err != nil {
				return err
			}
			days, err := app.Stats.GetRange(ctx, start, end)
			if err != nil {
				return err
			}
			avg, err := app.Stats.GetWeeklyAverage(ctx, start)
			if err != nil {
				return err
			}

			cmd.Println(formatter.FormatDays(days))
			cmd.Printf("\nDaily average: %s\n", formatter.FormatSeconds(avg))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day of the window (YYYY-MM-DD)")

	return cmd
}

func newStatsMonthCmd(app *App) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the focus total for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now().In(app.location())
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("invalid month %d", month)
			}

			total, err := app.Stats.GetMonthlyTotals(context.Background(), year, time.Month(month))
			if err != nil {
				return err
			}
			cmd.Printf("%d-%02d: %s\n", year, month, formatter.FormatSeconds(total))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (defaults to the current year)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (defaults to the current month)")

	return cmd
}

func newStatsYearCmd(app *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "year",
		Short: "Show the focus total for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = app.now().In(app.location()).Year()
			}

			total, err := app.Stats.GetYearlyTotals(context.Background(), year)
			if err != nil {
				return err
			}
			cmd.Printf("%d: %s\n", year, formatter.FormatSeconds(total))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (defaults to the current year)")

	return cmd
}
