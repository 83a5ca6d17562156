package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxengine/order"
	"github.com/rustyeddy/fxengine/sched"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Defer an order or batch to a future instant",
	Long: `Persist an order (from flags) or a batch (from a YAML file) to be
submitted at a future instant. The task survives restarts; a running
'fxengine run' fires it when the time comes, or on recovery if the
time elapsed while the engine was down.

Example:
  fxengine schedule --in 2h -i EUR_USD -d long --risk 10 --stop 25 --target 50
  fxengine schedule --at 2026-09-01T14:30:00Z --file intents.yaml`,
	RunE: runSchedule,
}

var (
	scheduleIn   time.Duration
	scheduleAt   string
	scheduleFile string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().DurationVar(&scheduleIn, "in", 0, "fire after this duration, e.g. 90m")
	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "fire at this RFC3339 instant")
	scheduleCmd.Flags().StringVarP(&scheduleFile, "file", "f", "", "YAML file of trade intents (batch)")
	scheduleCmd.Flags().StringVarP(&orderInstrument, "instrument", "i", "", "instrument, e.g. EUR_USD")
	scheduleCmd.Flags().StringVarP(&orderDirection, "direction", "d", "", "long or short")
	scheduleCmd.Flags().Float64Var(&orderRisk, "risk", 0, "amount to risk in account currency")
	scheduleCmd.Flags().Float64Var(&orderStop, "stop", 0, "stop-loss distance in pips")
	scheduleCmd.Flags().Float64Var(&orderTarget, "target", 0, "take-profit distance in pips")
	scheduleCmd.Flags().Float64Var(&orderBreakEven, "breakeven", 0, "move stop to entry after this many pips of profit (0 = off)")
}

func fireAtFromFlags(now time.Time) (time.Time, error) {
	switch {
	case scheduleIn > 0 && scheduleAt != "":
		return time.Time{}, fmt.Errorf("--in and --at are mutually exclusive")
	case scheduleIn > 0:
		return now.Add(scheduleIn), nil
	case scheduleAt != "":
		t, err := time.Parse(time.RFC3339, scheduleAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse --at: %w", err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("one of --in or --at is required")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	fireAt, err := fireAtFromFlags(time.Now())
	if err != nil {
		return err
	}

	var intents []order.TradeIntent
	if scheduleFile != "" {
		intents, err = loadIntents(scheduleFile)
		if err != nil {
			return err
		}
	} else {
		if orderInstrument == "" || orderDirection == "" {
			return fmt.Errorf("either --file or --instrument and --direction are required")
		}
		in, err := intentFromFlags()
		if err != nil {
			return err
		}
		intents = []order.TradeIntent{in}
	}

	store, err := buildStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// The timer armed here dies when this process exits; only the
	// persisted record matters. The run daemon re-derives a fresh
	// timer from it on its next store rescan or startup recovery.
	s := sched.New(store, func(ctx context.Context, id string, ins []order.TradeIntent) {},
		sched.Options{Policy: recoveryPolicy()})

	taskID, err := s.Schedule(cmd.Context(), intents, fireAt)
	if err != nil {
		return err
	}

	fmt.Printf("Scheduled task %s: %d intent(s) firing at %s\n",
		taskID, len(intents), fireAt.Format(time.RFC3339))
	fmt.Println("A running 'fxengine run' picks it up on its next store rescan; otherwise it fires on next startup recovery.")
	return nil
}
