package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fxengine/broker"
	"github.com/rustyeddy/fxengine/broker/oanda"
	"github.com/rustyeddy/fxengine/broker/sim"
	"github.com/rustyeddy/fxengine/exec"
	"github.com/rustyeddy/fxengine/journal"
	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/monitor"
	"github.com/rustyeddy/fxengine/sched"
)

// buildGateway constructs the broker from config. The sim gateway gets
// an indicative EUR_USD price so dry runs have something to fill at.
func buildGateway() (broker.Gateway, error) {
	typ := cfg.Broker.Type
	if dryRun {
		typ = "sim"
	}
	switch typ {
	case "sim":
		eng := sim.NewEngine()
		eng.SetTick(market.Tick{
			Instrument: "EUR_USD",
			Bid:        1.08490,
			Ask:        1.08510,
			Time:       time.Now(),
		})
		return eng, nil
	case "oanda":
		c, err := oanda.ConfigFromEnv(cfg.Broker.Env)
		if err != nil {
			return nil, err
		}
		return oanda.NewClient(c), nil
	}
	return nil, fmt.Errorf("unknown broker type %q", typ)
}

func buildJournal() (journal.Journal, error) {
	if cfg.Journal.DBPath == "" {
		return journal.Noop{}, nil
	}
	return journal.NewSQLite(cfg.Journal.DBPath)
}

func buildMonitors(gw broker.Gateway, j journal.Journal) (*monitor.Group, error) {
	interval, err := cfg.Monitor.ParsePollInterval()
	if err != nil {
		return nil, err
	}
	return monitor.NewGroup(gw, monitor.Options{
		Interval: interval,
		Listener: journalListener{j},
	}), nil
}

func buildExecutor(gw broker.Gateway, mons *monitor.Group, j journal.Journal) *exec.Executor {
	return exec.New(gw, exec.Options{
		Monitors:         mons,
		Journal:          j,
		BatchConcurrency: cfg.Executor.BatchConcurrency,
	})
}

func buildStore() (*sched.SQLiteStore, error) {
	return sched.NewSQLite(cfg.Scheduler.DBPath)
}

func recoveryPolicy() sched.RecoveryPolicy {
	if cfg.Scheduler.RecoveryPolicy == "mark-missed" {
		return sched.MarkMissed
	}
	return sched.RefireExpired
}
