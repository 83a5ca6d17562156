package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxengine/metrics"
	"github.com/rustyeddy/fxengine/sched"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engine: recover scheduled tasks and keep firing them",
	Long: `Run the engine daemon. On startup it loads every pending scheduled
task: future ones get fresh timers, elapsed ones are fired immediately
or marked missed, per scheduler.recovery_policy. While running it
rescans the store every scheduler.rescan_interval, so tasks scheduled
by other processes are picked up without a restart. The daemon keeps
firing tasks and running break-even watches until interrupted.

If metrics.listen_addr is set, Prometheus metrics are served at
/metrics on that address.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	store, err := buildStore()
	if err != nil {
		return err
	}
	defer store.Close()

	s := sched.New(store, ex.HandleTask, sched.Options{Policy: recoveryPolicy()})
	if err := s.Recover(cmd.Context()); err != nil {
		return err
	}

	// Tasks scheduled by another process while the daemon runs only
	// exist in the store; rescanning arms them without a restart.
	rescanEvery, err := cfg.Scheduler.ParseRescanInterval()
	if err != nil {
		return err
	}
	rescan := time.NewTicker(rescanEvery)
	defer rescan.Stop()
	go func() {
		for range rescan.C {
			if err := s.Recover(cmd.Context()); err != nil {
				slog.Error("rescan pending tasks", "error", err)
			}
		}
	}()

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				slog.Error("metrics server", "error", err)
			}
		}()
		slog.Info("serving metrics", "addr", addr)
	}

	fmt.Printf("Engine running (%d pending task(s)); Ctrl-C to stop\n", len(s.PendingTasks()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("Shutting down...")
	mons.Close()
	return nil
}
