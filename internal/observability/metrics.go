package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mcc_search"

// Metrics holds the Prometheus counters, histograms, and gauges for the search pipeline.
type Metrics struct {
	FramesProcessed prometheus.Counter
	CloudElements   prometheus.Counter
	RegionsSkipped  prometheus.Counter
	PipelineRunning prometheus.Gauge
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}

	// Graph sizes of the last run.
	GraphNodes  prometheus.Gauge
	GraphEdges  prometheus.Gauge
	PrunedNodes prometheus.Gauge
	PrunedEdges prometheus.Gauge
	Lineages    prometheus.Gauge
	MCCs        prometheus.Gauge

	StageDuration     *prometheus.HistogramVec // labels: stage
	FeaturesPublished *prometheus.CounterVec   // labels: sink={kafka,sqlite}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Total brightness-temperature frames labeled.",
		}),
		CloudElements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cloud_elements_total",
			Help:      "Total cloud elements accepted by the labeler.",
		}),
		RegionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_skipped_total",
			Help:      "Regions that could not be measured or mapped to the grid.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a search run is active, 0 otherwise.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Search runs by outcome.",
		}, []string{"outcome"}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the cleaned link graph of the last run.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the cleaned link graph of the last run.",
		}),
		PrunedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pruned_graph_nodes",
			Help:      "Nodes in the pruned graph of the last run.",
		}),
		PrunedEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pruned_graph_edges",
			Help:      "Edges in the pruned graph of the last run.",
		}),
		Lineages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lineages",
			Help:      "Lineages classified in the last run.",
		}),
		MCCs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mccs",
			Help:      "Mesoscale convective complexes found in the last run.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		FeaturesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_published_total",
			Help:      "Features written to each result sink.",
		}, []string{"sink"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FramesProcessed,
		m.CloudElements,
		m.RegionsSkipped,
		m.PipelineRunning,
		m.RunsTotal,
		m.GraphNodes,
		m.GraphEdges,
		m.PrunedNodes,
		m.PrunedEdges,
		m.Lineages,
		m.MCCs,
		m.StageDuration,
		m.FeaturesPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
