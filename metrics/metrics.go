// Package metrics exposes Prometheus counters for the engine:
//
//   - fxengine_orders_total{result}         – submissions by outcome (filled|rejected)
//   - fxengine_tasks_total{event}           – scheduler events (scheduled|fired|cancelled|missed)
//   - fxengine_breakeven_total{result}      – break-even watches by terminal state (completed|aborted)
//   - fxengine_batch_intents                – intents per batch (histogram)
//
// Registered in init() and served by the run command at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxengine_orders_total",
			Help: "Order submissions by outcome",
		},
		[]string{"result"},
	)

	mtxTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxengine_tasks_total",
			Help: "Scheduled task events",
		},
		[]string{"event"},
	)

	mtxBreakEven = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxengine_breakeven_total",
			Help: "Break-even watches by terminal state",
		},
		[]string{"result"},
	)

	mtxBatchIntents = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fxengine_batch_intents",
			Help:    "Number of intents per executed batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)
)

func init() {
	prometheus.MustRegister(mtxOrders, mtxTasks, mtxBreakEven, mtxBatchIntents)
}

func OrderFilled()   { mtxOrders.WithLabelValues("filled").Inc() }
func OrderRejected() { mtxOrders.WithLabelValues("rejected").Inc() }

func TaskScheduled() { mtxTasks.WithLabelValues("scheduled").Inc() }
func TaskFired()     { mtxTasks.WithLabelValues("fired").Inc() }
func TaskCancelled() { mtxTasks.WithLabelValues("cancelled").Inc() }
func TaskMissed()    { mtxTasks.WithLabelValues("missed").Inc() }

func BreakEvenCompleted() { mtxBreakEven.WithLabelValues("completed").Inc() }
func BreakEvenAborted()   { mtxBreakEven.WithLabelValues("aborted").Inc() }

func BatchSize(n int) { mtxBatchIntents.Observe(float64(n)) }

// Handler serves the Prometheus text exposition format.
func Handler() http.Handler { return promhttp.Handler() }
