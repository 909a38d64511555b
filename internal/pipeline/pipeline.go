package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"

	"github.com/couchcryptid/storm-mcc-search/internal/classify"
	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/labeling"
	"github.com/couchcryptid/storm-mcc-search/internal/observability"
	"github.com/couchcryptid/storm-mcc-search/internal/precip"
	"github.com/couchcryptid/storm-mcc-search/internal/summary"
	"github.com/couchcryptid/storm-mcc-search/internal/track"
)

// FeatureLoader writes the features of a completed run to a sink.
type FeatureLoader interface {
	Name() string
	LoadFeatures(ctx context.Context, run *Run) error
}

// Options holds the optional collaborators of a Pipeline. Nil fields disable
// the corresponding stage.
type Options struct {
	Enricher *precip.Enricher
	Geocoder domain.Geocoder
	Loaders  []FeatureLoader

	// LoadAttempts bounds retries per loader. Zero means three.
	LoadAttempts int
}

// Pipeline runs the MCC search over one dataset at a time.
type Pipeline struct {
	criteria   domain.Criteria
	labeler    *labeling.Labeler
	linker     *track.Linker
	classifier *classify.Classifier
	builder    *summary.Builder
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	last       atomic.Pointer[Run]
}

// New creates a Pipeline for the given criteria and observability.
func New(criteria domain.Criteria, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.LoadAttempts <= 0 {
		opts.LoadAttempts = 3
	}
	return &Pipeline{
		criteria:   criteria,
		labeler:    labeling.New(criteria, logger),
		linker:     track.NewLinker(criteria, logger),
		classifier: classify.New(criteria, logger),
		builder:    summary.NewBuilder(criteria),
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Last returns the most recent completed run, or nil.
func (p *Pipeline) Last() *Run {
	return p.last.Load()
}

// Features returns the last run's features of kind, or all of them when kind
// is empty. It returns nil before the first run.
func (p *Pipeline) Features(kind domain.FeatureKind) []domain.Feature {
	run := p.last.Load()
	if run == nil {
		return nil
	}
	if kind == "" {
		return run.Features
	}
	return run.featuresOf(kind)
}

// Run executes the full search over ds and publishes the results to every
// loader. Fatal errors are returned as *domain.StageError.
func (p *Pipeline) Run(ctx context.Context, ds domain.Dataset) (*Run, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	run, err := p.run(ctx, ds)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.last.Store(run)
	p.ready.Store(true)
	return run, nil
}

func (p *Pipeline) run(ctx context.Context, ds domain.Dataset) (*Run, error) {
	if err := ds.Validate(); err != nil {
		return nil, &domain.StageError{Stage: domain.StageLabeling, Err: err}
	}
	ds, err := ds.Subset(p.criteria)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageLabeling, Err: err}
	}
	ds = ds.MaskWarm(p.criteria.TBBMax)

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: domain.Now(),
		Grid:      ds.Grid,
		Times:     ds.Times,
		Repo:      track.NewRepository(),
		Full:      track.NewGraph(),
		Criteria:  p.criteria,
	}
	log := p.logger.With("run_id", run.ID)
	log.Info("run started", "frames", len(ds.Frames), "rows", ds.Grid.Rows(), "cols", ds.Grid.Cols())

	if err := p.labelAndLink(ctx, run, ds, log); err != nil {
		return nil, err
	}

	start := time.Now()
	removed := run.Full.RemoveIsolated()
	run.Pruned, err = track.Prune(run.Full, p.criteria.MinMCSDuration)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StagePruning, Err: err}
	}
	p.observe(domain.StagePruning, start)
	log.Info("graph pruned",
		"isolated_removed", len(removed),
		"nodes", run.Full.Len(), "edges", run.Full.EdgeCount(),
		"pruned_nodes", run.Pruned.Len(), "pruned_edges", run.Pruned.EdgeCount())

	start = time.Now()
	run.Lineages, err = track.Lineages(run.Pruned, p.criteria.MinMCSDuration)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageTraversal, Err: err}
	}
	p.observe(domain.StageTraversal, start)

	if p.opts.Enricher != nil && ds.Precip != nil {
		start = time.Now()
		n, err := p.opts.Enricher.Enrich(ctx, ds.Grid, ds.Precip, run.Repo)
		if err != nil {
			return nil, &domain.StageError{Stage: domain.StageEnrichment, Err: err}
		}
		p.observe(domain.StageEnrichment, start)
		log.Info("precipitation sampled", "elements", n)
	}

	if err := p.classify(run); err != nil {
		return nil, err
	}
	log.Info("classification complete", "lineages", len(run.Lineages), "mcc", len(run.MCC))

	if err := p.buildFeatures(ctx, run, log); err != nil {
		return nil, err
	}
	p.record(run)
	run.FinishedAt = domain.Now()

	for _, l := range p.opts.Loaders {
		if err := p.load(ctx, l, run, log); err != nil {
			return nil, err
		}
	}

	log.Info("run finished", "features", len(run.Features), "duration", run.FinishedAt.Sub(run.StartedAt).String())
	return run, nil
}

// labelAndLink extracts cloud elements frame by frame and links each frame to
// the previous one.
func (p *Pipeline) labelAndLink(ctx context.Context, run *Run, ds domain.Dataset, log *slog.Logger) error {
	var prev []*domain.CloudElement
	for i, frame := range ds.Frames {
		if err := ctx.Err(); err != nil {
			return &domain.StageError{Stage: domain.StageLabeling, Frame: i + 1, Err: err}
		}
		frameNum := i + 1

		start := time.Now()
		res := p.labeler.Label(frameNum, ds.Times[i], ds.Grid, frame)
		if err := run.Repo.AddFrame(frameNum, res.Elements); err != nil {
			return &domain.StageError{Stage: domain.StageLabeling, Frame: frameNum, Err: err}
		}
		p.observe(domain.StageLabeling, start)
		p.metrics.FramesProcessed.Inc()
		p.metrics.CloudElements.Add(float64(len(res.Elements)))
		p.metrics.RegionsSkipped.Add(float64(res.Skipped))

		start = time.Now()
		edges := p.linker.Link(run.Full, prev, res.Elements)
		p.observe(domain.StageLinking, start)

		log.Debug("frame processed", "frame", frameNum, "elements", len(res.Elements), "edges", edges)
		prev = res.Elements
	}
	return nil
}

func (p *Pipeline) classify(run *Run) error {
	start := time.Now()
	for _, lin := range run.Lineages {
		res, err := p.classifier.Classify(lin, run.Repo, run.Pruned, run.Full)
		if err != nil {
			var se *domain.StageError
			if errors.As(err, &se) {
				return err
			}
			return &domain.StageError{Stage: domain.StageClassification, Err: err}
		}
		run.MCS = append(run.MCS, res.MCS)
		run.MCC = append(run.MCC, res.MCC...)
	}
	p.observe(domain.StageClassification, start)
	return nil
}

func (p *Pipeline) buildFeatures(ctx context.Context, run *Run, log *slog.Logger) error {
	now := domain.Now()
	build := func(kind domain.FeatureKind, nodes []domain.CEID) error {
		f, err := p.builder.Build(kind, nodes, run.Repo, run.Pruned)
		if err != nil {
			return &domain.StageError{Stage: domain.StageClassification, Node: nodes[0], Err: err}
		}
		f.ID = uuid.NewString()
		f.RunID = run.ID
		f.ProcessedAt = now
		if kind == domain.FeatureMCC {
			f = domain.EnrichWithGeocoding(ctx, f, p.opts.Geocoder, log)
		}
		run.Features = append(run.Features, f)
		return nil
	}

	for _, nodes := range run.MCC {
		if err := build(domain.FeatureMCC, nodes); err != nil {
			return err
		}
	}
	for _, nodes := range run.MCS {
		if err := build(domain.FeatureMCS, nodes); err != nil {
			return err
		}
	}
	run.Period = summary.Summarize(run.MCCFeatures())
	return nil
}

// load publishes run to one sink, retrying with exponential backoff.
func (p *Pipeline) load(ctx context.Context, l FeatureLoader, run *Run, log *slog.Logger) error {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= p.opts.LoadAttempts; attempt++ {
		if err = l.LoadFeatures(ctx, run); err == nil {
			p.metrics.FeaturesPublished.WithLabelValues(l.Name()).Add(float64(len(run.Features)))
			log.Info("features published", "sink", l.Name(), "features", len(run.Features))
			return nil
		}
		log.Error("load features failed", "sink", l.Name(), "attempt", attempt, "error", err)
		if attempt == p.opts.LoadAttempts || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load features to %s: %w", l.Name(), err)
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (p *Pipeline) record(run *Run) {
	p.metrics.GraphNodes.Set(float64(run.Full.Len()))
	p.metrics.GraphEdges.Set(float64(run.Full.EdgeCount()))
	p.metrics.PrunedNodes.Set(float64(run.Pruned.Len()))
	p.metrics.PrunedEdges.Set(float64(run.Pruned.EdgeCount()))
	p.metrics.Lineages.Set(float64(len(run.Lineages)))
	p.metrics.MCCs.Set(float64(len(run.MCC)))
}
