package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxengine/order"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Submit a batch of orders from a YAML file",
	Long: `Submit every intent in a YAML file. Each intent is quoted, sized and
submitted independently; one failure never blocks the others.

File format:
  - instrument: EUR_USD
    direction: long
    risk_amount: 10
    stop_loss_pips: 25
    take_profit_pips: 50
    move_to_break_even: true
    break_even_pips: 15
  - instrument: GBP_USD
    direction: short
    risk_amount: 10
    stop_loss_pips: 30
    take_profit_pips: 45`,
	RunE: runBatch,
}

var batchFile string

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML file of trade intents (required)")
	batchCmd.MarkFlagRequired("file")
}

func loadIntents(path string) ([]order.TradeIntent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents file: %w", err)
	}
	var intents []order.TradeIntent
	if err := yaml.Unmarshal(data, &intents); err != nil {
		return nil, fmt.Errorf("parse intents file: %w", err)
	}
	if len(intents) == 0 {
		return nil, fmt.Errorf("no intents in %s", path)
	}
	return intents, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	intents, err := loadIntents(batchFile)
	if err != nil {
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

	res := ex.ExecuteBatch(cmd.Context(), intents)

	for _, out := range res.Outcomes {
		if out.OK() {
			fmt.Printf("  %-8s %-6s filled   trade %s, %d units @ %.5f\n",
				out.Intent.Instrument, out.Intent.Direction, out.TradeID, out.Units, out.Price)
		} else {
			fmt.Printf("  %-8s %-6s rejected %s\n",
				out.Intent.Instrument, out.Intent.Direction, out.Reason)
		}
	}
	fmt.Printf("%d succeeded, %d failed\n", res.Succeeded, res.Failed)

	if mons.ActiveCount() > 0 {
		fmt.Printf("Watching %d trade(s) for break-even (Ctrl-C to stop)...\n", mons.ActiveCount())
		mons.Wait()
	}
	return nil
}
