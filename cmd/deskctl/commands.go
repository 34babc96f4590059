package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/camuig/signal-desk/internal/desk"
	"github.com/camuig/signal-desk/internal/gateway"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

func newListCmd(rc *rootConfig) *cobra.Command {
	var query, tag, sortKey string
	var closed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open signals or closed trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rc.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if closed {
				fmt.Fprintln(tw, "TICKER\tBUY\tCLOSE\tPROFIT\tCLOSED\tNOTES")
				for _, t := range s.desk.ListClosed(query, tag, sortKey) {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						t.Ticker, num(t.BuyPrice), num(t.ClosePrice), profit(t), day(t.ClosedAt), t.Notes)
				}
				return nil
			}

			fmt.Fprintln(tw, "TICKER\tACTION\tBUY\tAMOUNT\tCONF\tCREATED\tNOTES")
			for _, sig := range s.desk.ListSignals(query, tag, sortKey) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					sig.Ticker, sig.Action, num(sig.BuyPrice), num(sig.BuyAmount),
					num(sig.ConfidenceScore), day(sig.CreatedAt), sig.Notes)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "q", "", "free-text filter over ticker, name and notes")
	cmd.Flags().StringVar(&tag, "tag", "", "only records carrying this tag")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key (defaults to the configured order)")
	cmd.Flags().BoolVar(&closed, "closed-trades", false, "list closed trades instead of open signals")
	return cmd
}

func newTagsCmd(rc *rootConfig) *cobra.Command {
	var closed bool
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Print the distinct tags of a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rc.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tags := s.desk.SignalTags()
			if closed {
				tags = s.desk.ClosedTags()
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&closed, "closed-trades", false, "read tags from closed trades")
	return cmd
}

func newSummaryCmd(rc *rootConfig) *cobra.Command {
	var unit string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the time-window and confidence rollups of closed trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rc.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sum, err := s.desk.Summary(unit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()
			fmt.Fprintf(tw, "WINDOW\t%s\tTRADES\n", strings.ToUpper(string(sum.Unit)))
			for _, r := range sum.Windows {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Label, r.Display, r.Count)
			}
			fmt.Fprintf(tw, "\nCONFIDENCE (%s)\t%s\tTRADES\n", sum.Boundary, strings.ToUpper(string(sum.Unit)))
			for _, r := range sum.Confidence {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Label, r.Display, r.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "usd or pct (defaults to desk.closed_view)")
	return cmd
}

func newCloseCmd(rc *rootConfig) *cobra.Command {
	var price, date string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "close <ticker>...",
		Short: "Close open signals at a price and rewrite both collection files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rc.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			when := time.Now().UTC()
			if date != "" {
				when, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", date)
				}
			}

			var closed, failed int
			for _, ticker := range args {
				ticker = strings.ToUpper(strings.TrimSpace(ticker))
				sig, ok := findByTicker(s.desk.ListSignals("", "", ""), ticker)
				if !ok {
					fmt.Fprintf(errOut, "  [FAIL] %s: no open signal\n", ticker)
					failed++
					continue
				}

				text := price
				if text == "" {
					pending, err := s.desk.PendingClose(sig.ID)
					if err != nil {
						fmt.Fprintf(errOut, "  [FAIL] %s: %v\n", ticker, err)
						failed++
						continue
					}
					text = fmt.Sprint(pending.ClosePrice)
				}

				trade, err := s.desk.CloseSignal(sig.ID, when, text)
				if err != nil {
					fmt.Fprintf(errOut, "  [FAIL] %s: %v\n", ticker, err)
					failed++
					continue
				}
				fmt.Fprintf(out, "  [OK]   %s: closed @ %.2f, P&L %+.2f\n", ticker, *trade.ClosePrice, *trade.Profit)
				closed++
			}

			if dryRun {
				fmt.Fprintln(out, "Dry run, files not rewritten.")
			} else if closed > 0 {
				if err := rewrite(s); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "\nDone: %d closed, %d failed.\n", closed, failed)
			if failed > 0 {
				return fmt.Errorf("%d close(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&price, "price", "", "exit price (defaults to the buy price)")
	cmd.Flags().StringVar(&date, "date", "", "close date YYYY-MM-DD (defaults to today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the result without rewriting files")
	return cmd
}

func findByTicker(list []signals.Signal, ticker string) (signals.Signal, bool) {
	for _, s := range list {
		if s.Ticker == ticker {
			return s, true
		}
	}
	return signals.Signal{}, false
}

// rewrite saves both collections over their sources. It refuses when either
// source did not load completely, since the save would drop those records.
func rewrite(s *session) error {
	for _, rep := range s.loaded {
		if err := rep.Check(); err != nil {
			return fmt.Errorf("refusing to rewrite collections: %w", err)
		}
	}
	for _, p := range []struct {
		col  desk.Collection
		path string
	}{
		{desk.CollectionSignals, s.signalsPath},
		{desk.CollectionClosed, s.closedPath},
	} {
		if strings.HasPrefix(p.path, "http://") || strings.HasPrefix(p.path, "https://") {
			return fmt.Errorf("cannot rewrite remote collection %s", p.path)
		}
		if _, err := s.desk.Save(p.col, p.path); err != nil {
			return fmt.Errorf("save %s: %w", p.col, err)
		}
	}
	return nil
}

func newValidateCmd(rc *rootConfig) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a file would be accepted by import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := desk.ParseCollection(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			gw := gateway.New(logger.NewWithWriter(cmd.ErrOrStderr(), rc.logLevel))
			var n int
			if col == desk.CollectionClosed {
				var list []signals.ClosedTrade
				list, err = gw.ImportClosedTrades(data)
				n = len(list)
			} else {
				var list []signals.Signal
				list, err = gw.ImportSignals(data)
				n = len(list)
			}
			if errors.Is(err, gateway.ErrMalformedImport) {
				fmt.Fprintf(cmd.ErrOrStderr(), "  [FAIL] %s: %v\n", args[0], err)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  [OK]   %s: %d %s record(s)\n", args[0], n, col)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "signals", "signals or closed")
	return cmd
}

func num(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *p)
}

func profit(t signals.ClosedTrade) string {
	p, ok := t.RealizedProfit()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%+.2f", p)
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
