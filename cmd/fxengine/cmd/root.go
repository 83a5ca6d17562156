package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxengine/config"
)

var rootCmd = &cobra.Command{
	Use:   "fxengine",
	Short: "Risk-sized FX order execution engine",
	Long: `fxengine submits risk-sized bracket orders to an FX broker, now or at
a future instant, individually or in batches. Scheduled submissions
survive restarts, and filled positions can have their stop-loss moved
to break-even automatically once a profit threshold is reached.

Position sizes come from the amount you are willing to lose: risk
amount divided by the effective stop distance (stop pips plus spread)
gives the per-pip risk, which the instrument's pip value converts to
units.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Broker credentials live in the environment; .env is optional.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		return loadConfig()
	},
}

var (
	cfgPath string
	verbose bool
	dryRun  bool
	cfg     *config.Config
)

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./fxengine.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "use the in-memory sim broker regardless of config")
}

func loadConfig() error {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg = config.Default()
		return nil
	}
	c, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return nil
}
