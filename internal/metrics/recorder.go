package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/guimove/powerfit/internal/model"
	"github.com/guimove/powerfit/internal/placement"
)

const namespace = "powerfit"

// Recorder instruments placement runs on a private registry. It implements
// placement.Observer and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	moves                *prometheus.CounterVec
	infeasibleCandidates prometheus.Counter
	generation           prometheus.Gauge
	bestPower            prometheus.Gauge

	runs        *prometheus.CounterVec
	powerWatts  *prometheus.GaugeVec
	activeHosts *prometheus.GaugeVec
	unplaced    *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	labels prometheus.Labels
}

// WithInventory adds an inventory label to every series.
func WithInventory(name string) RecorderOption {
	return func(c *recorderConfig) {
		if name != "" {
			c.labels["inventory"] = name
		}
	}
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder(opts ...RecorderOption) *Recorder {
	cfg := &recorderConfig{labels: prometheus.Labels{}}
	for _, opt := range opts {
		opt(cfg)
	}
	labels := cfg.labels

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "optimizer",
			Name:        "moves_total",
			Help:        "Firefly moves evaluated, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		infeasibleCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "optimizer",
			Name:        "infeasible_candidates_total",
			Help:        "Candidates still over capacity after repair.",
			ConstLabels: labels,
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "optimizer",
			Name:        "generation",
			Help:        "Last completed generation.",
			ConstLabels: labels,
		}),
		bestPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "optimizer",
			Name:        "best_power_watts",
			Help:        "Total power of the best assignment found so far.",
			ConstLabels: labels,
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "placements_total",
			Help:        "Completed placement runs, by strategy and feasibility.",
			ConstLabels: labels,
		}, []string{"strategy", "feasible"}),
		powerWatts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "placement_power_watts",
			Help:        "Total power of the last placement, by strategy.",
			ConstLabels: labels,
		}, []string{"strategy"}),
		activeHosts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "placement_active_hosts",
			Help:        "Powered-on hosts in the last placement, by strategy.",
			ConstLabels: labels,
		}, []string{"strategy"}),
		unplaced: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "placement_unplaced_workloads",
			Help:        "Workloads left unplaced in the last placement, by strategy.",
			ConstLabels: labels,
		}, []string{"strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "placement_duration_seconds",
			Help:        "Wall time of placement runs, by strategy.",
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
			ConstLabels: labels,
		}, []string{"strategy"}),
	}

	r.registry.MustRegister(
		r.moves, r.infeasibleCandidates, r.generation, r.bestPower,
		r.runs, r.powerWatts, r.activeHosts, r.unplaced, r.duration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// MoveEvaluated counts one candidate move.
func (r *Recorder) MoveEvaluated(accepted, feasible bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	r.moves.WithLabelValues(outcome).Inc()
	if !feasible {
		r.infeasibleCandidates.Inc()
	}
}

// GenerationDone records optimizer progress.
func (r *Recorder) GenerationDone(generation int, best placement.Evaluation) {
	r.generation.Set(float64(generation))
	r.bestPower.Set(best.PowerWatts)
}

// ObservePlacement records the outcome of a finished run.
func (r *Recorder) ObservePlacement(p *model.Placement) {
	r.runs.WithLabelValues(p.Strategy, strconv.FormatBool(p.Feasible)).Inc()
	r.powerWatts.WithLabelValues(p.Strategy).Set(p.TotalPowerWatts)
	r.activeHosts.WithLabelValues(p.Strategy).Set(float64(p.ActiveHosts))
	r.unplaced.WithLabelValues(p.Strategy).Set(float64(len(p.Unplaced)))
	r.duration.WithLabelValues(p.Strategy).Observe(p.Duration.Seconds())
}

// WriteTo writes every gathered family in the Prometheus text format.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return 0, fmt.Errorf("gathering metrics: %w", err)
	}

	var total int64
	for _, mf := range families {
		n, err := expfmt.MetricFamilyToText(w, mf)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return total, nil
}

// WriteFile writes the text exposition to path, in the format node_exporter's
// textfile collector reads.
func (r *Recorder) WriteFile(path string) error {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}

var _ placement.Observer = (*Recorder)(nil)
