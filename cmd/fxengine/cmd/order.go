package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/order"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Size and submit one bracket order now",
	Long: `Size and submit a single risk-based bracket order at the current quote.

Example:
  fxengine order --instrument EUR_USD --direction long --risk 10 --stop 25 --target 50
  fxengine order -i GBP_USD -d short --risk 50 --stop 30 --target 60 --breakeven 20`,
	RunE: runOrder,
}

var (
	orderInstrument string
	orderDirection  string
	orderRisk       float64
	orderStop       float64
	orderTarget     float64
	orderBreakEven  float64
)

func init() {
	rootCmd.AddCommand(orderCmd)

	orderCmd.Flags().StringVarP(&orderInstrument, "instrument", "i", "", "instrument, e.g. EUR_USD (required)")
	orderCmd.Flags().StringVarP(&orderDirection, "direction", "d", "", "long or short (required)")
	orderCmd.Flags().Float64Var(&orderRisk, "risk", 0, "amount to risk in account currency")
	orderCmd.Flags().Float64Var(&orderStop, "stop", 0, "stop-loss distance in pips")
	orderCmd.Flags().Float64Var(&orderTarget, "target", 0, "take-profit distance in pips")
	orderCmd.Flags().Float64Var(&orderBreakEven, "breakeven", 0, "move stop to entry after this many pips of profit (0 = off)")
	orderCmd.MarkFlagRequired("instrument")
	orderCmd.MarkFlagRequired("direction")
}

// intentFromFlags fills unset flags from the configured defaults.
func intentFromFlags() (order.TradeIntent, error) {
	dir, err := market.ParseDirection(orderDirection)
	if err != nil {
		return order.TradeIntent{}, err
	}

	in := order.TradeIntent{
		Instrument:     orderInstrument,
		Direction:      dir,
		RiskAmount:     orderRisk,
		StopLossPips:   orderStop,
		TakeProfitPips: orderTarget,
	}
	if in.RiskAmount == 0 {
		in.RiskAmount = cfg.Defaults.RiskAmount
	}
	if in.StopLossPips == 0 {
		in.StopLossPips = cfg.Defaults.StopPips
	}
	if in.TakeProfitPips == 0 {
		in.TakeProfitPips = cfg.Defaults.TargetPips
	}
	if orderBreakEven > 0 {
		in.MoveToBreakEven = true
		in.BreakEvenPips = orderBreakEven
	}
	return in, nil
}

func runOrder(cmd *cobra.Command, args []string) error {
	intent, err := intentFromFlags()
	if err != nil {
		return err
	}
	if err := intent.Validate(); err != nil {
		return err
	}

	gw, err := buildGateway()
	if err != nil {
		return err
	}
	j, err := buildJournal()
	if err != nil {
		return err
	}
	defer j.Close()
	mons, err := buildMonitors(gw, j)
	if err != nil {
		return err
	}
	ex := buildExecutor(gw, mons, j)

	out := ex.ExecuteSingle(cmd.Context(), intent)
	if !out.OK() {
		return fmt.Errorf("order rejected: %s", out.Reason)
	}

	fmt.Printf("Filled: trade %s, %d units of %s @ %.5f\n",
		out.TradeID, out.Units, intent.Instrument, out.Price)

	if intent.MoveToBreakEven {
		fmt.Printf("Watching for break-even at +%.1f pips (Ctrl-C to stop)...\n", intent.BreakEvenPips)
		mons.Wait()
	}
	return nil
}
