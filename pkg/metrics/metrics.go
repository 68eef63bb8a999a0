package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder registers Prometheus collectors for allocation runs.
type Recorder struct {
	registry    *prometheus.Registry
	runTotal    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	placements  prometheus.Counter
	seatsShort  prometheus.Gauge
	vacantRooms prometheus.Gauge
}

// NewRecorder registers core collectors on a private registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_runs_total",
		Help: "Total allocation runs by pattern and outcome",
	}, []string{"pattern", "outcome"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_run_duration_seconds",
		Help:    "Duration of allocation runs in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"pattern"})

	placements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_placements_total",
		Help: "Total seat placements committed",
	})

	seatsShort := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allocation_seats_short",
		Help: "Seat shortage reported by the last capacity check",
	})

	vacantRooms := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allocation_vacant_rooms",
		Help: "Rooms left without an invigilator after the last coverage pass",
	})

	registry.MustRegister(runTotal, runDuration, placements, seatsShort, vacantRooms)

	return &Recorder{
		registry:    registry,
		runTotal:    runTotal,
		runDuration: runDuration,
		placements:  placements,
		seatsShort:  seatsShort,
		vacantRooms: vacantRooms,
	}
}

// ObserveRun records one finished run.
func (r *Recorder) ObserveRun(pattern, outcome string, duration time.Duration, placed int) {
	r.runTotal.WithLabelValues(pattern, outcome).Inc()
	r.runDuration.WithLabelValues(pattern).Observe(duration.Seconds())
	if placed > 0 {
		r.placements.Add(float64(placed))
	}
}

// SetShortage records the seat shortage from the last capacity check.
func (r *Recorder) SetShortage(shortage int) {
	r.seatsShort.Set(float64(shortage))
}

// SetVacantRooms records uncovered rooms from the last coverage pass.
func (r *Recorder) SetVacantRooms(count int) {
	r.vacantRooms.Set(float64(count))
}

// Registry exposes the collectors for gathering or serving.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends the recorded collectors to a Pushgateway. The CLI exits
// before any scraper could reach it, so pushing is the only way out.
func (r *Recorder) Push(url, job string) error {
	return push.New(url, job).Gatherer(r.registry).Push()
}
