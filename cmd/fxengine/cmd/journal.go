package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxengine/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the order journal",
	Long: `Query recorded order outcomes and break-even events.

Usage:
  fxengine journal today
  fxengine journal day 2026-08-30
  fxengine journal instrument EUR_USD
  fxengine journal order <order-id>
  fxengine journal breakeven <trade-id>`,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTodayCmd, journalDayCmd, journalInstrumentCmd, journalOrderCmd, journalBreakEvenCmd)
}

func openJournal() (*journal.SQLite, error) {
	if cfg.Journal.DBPath == "" {
		return nil, fmt.Errorf("journal.db_path is not configured")
	}
	return journal.NewSQLite(cfg.Journal.DBPath)
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Orders submitted today",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printOrdersForDay(time.Now().Local().Format("2006-01-02"))
	},
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "Orders submitted on a given day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printOrdersForDay(args[0])
	},
}

var journalInstrumentCmd = &cobra.Command{
	Use:   "instrument <name>",
	Short: "Orders for one instrument, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		recs, err := j.ListOrdersByInstrument(args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No orders")
			return nil
		}
		for _, r := range recs {
			printOrder(r)
		}
		return nil
	},
}

var journalOrderCmd = &cobra.Command{
	Use:   "order <order-id>",
	Short: "One order record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		rec, err := j.GetOrder(args[0])
		if err != nil {
			return err
		}
		printOrder(rec)
		return nil
	},
}

var journalBreakEvenCmd = &cobra.Command{
	Use:   "breakeven <trade-id>",
	Short: "Break-even events for a trade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		recs, err := j.ListBreakEvenByTrade(args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No break-even events")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("%s  %-8s %-9s %s  %s\n",
				r.At.Local().Format(time.RFC3339), r.Instrument, r.Result, r.TradeID, r.Detail)
		}
		return nil
	},
}

func printOrdersForDay(day string) error {
	start, err := time.ParseInLocation("2006-01-02", day, time.Local)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	end := start.Add(24 * time.Hour)

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListOrdersBetween(start, end)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No orders")
		return nil
	}
	for _, r := range recs {
		printOrder(r)
	}
	return nil
}

func printOrder(r journal.OrderRecord) {
	switch r.Status {
	case "filled":
		fmt.Printf("%s  %-8s %-6s filled   %d units @ %.5f  sl %.5f tp %.5f  trade %s\n",
			r.SubmittedAt.Local().Format("15:04:05"), r.Instrument, r.Direction,
			r.Units, r.EntryPrice, r.StopLoss, r.TakeProfit, r.TradeID)
	default:
		fmt.Printf("%s  %-8s %-6s rejected %s\n",
			r.SubmittedAt.Local().Format("15:04:05"), r.Instrument, r.Direction, r.Reason)
	}
}
