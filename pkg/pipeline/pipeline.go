// Package pipeline orchestrates one full scoring run: importing spectra,
// processing queries and references through their filter chains, and
// applying the workflow's score computations in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spectralworks/specmatch/pkg/eventstream"
	"github.com/spectralworks/specmatch/pkg/eventstream/nop"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/process"
	"github.com/spectralworks/specmatch/pkg/scores"
	"github.com/spectralworks/specmatch/pkg/similarity"
	"github.com/spectralworks/specmatch/pkg/specio"
	"github.com/spectralworks/specmatch/pkg/spectrum"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

// Config assembles a pipeline's collaborators. Workflow is required; the
// rest default to quiet implementations.
type Config struct {
	// Workflow supplies the filter chains and score computations.
	Workflow *workflow.Workflow

	// Workers bounds the parallelism inside one measure evaluation.
	// Zero or negative means one worker per CPU.
	Workers int

	// RunLog, when set, receives timestamped stage and step lines. It is
	// observational only and never affects the run's outcome.
	RunLog io.Writer

	// Publisher receives run lifecycle events.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Pipeline executes scoring runs. A run is strictly sequential: each
// stage, and each score computation within the scoring stage, completes
// before the next begins. Only the pair evaluations inside a single
// measure run in parallel.
type Pipeline struct {
	wf      *workflow.Workflow
	workers int
	runLog  io.Writer
	events  eventstream.Publisher
	log     *slog.Logger
}

// New creates a pipeline from the given configuration.
func New(c Config) (*Pipeline, error) {
	if c.Workflow == nil {
		return nil, fmt.Errorf("pipeline requires a workflow: %w", workflow.ErrConfiguration)
	}
	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Pipeline{
		wf:      c.Workflow,
		workers: c.Workers,
		runLog:  c.RunLog,
		events:  c.Publisher,
		log:     c.Logger,
	}, nil
}

// Run executes one scoring run. Queries are loaded from queryPaths in
// call order. An empty referencePaths switches on symmetric mode: the
// references alias the processed queries and the reference stage is
// skipped. On failure no result is returned, only an error naming the
// failing stage.
func (p *Pipeline) Run(ctx context.Context, queryPaths, referencePaths []string) (*Result, error) {
	return p.RunWithID(ctx, uuid.NewString(), queryPaths, referencePaths)
}

// RunWithID is Run with a caller-assigned run ID, for callers that hand
// out the ID before the run starts.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, queryPaths, referencePaths []string) (*Result, error) {
	r := &Result{
		RunID:     runID,
		Symmetric: len(referencePaths) == 0,
		Started:   time.Now(),
	}
	log := p.log.With("run_id", r.RunID)

	p.logf("run %s started", r.RunID)
	p.publish(ctx, eventstream.RunEvent{
		EventType: eventstream.EventTypeRunStarted,
		RunID:     r.RunID,
	})

	err := p.execute(ctx, r, queryPaths, referencePaths, log)
	r.Finished = time.Now()
	if err != nil {
		p.logf("run %s failed: %v", r.RunID, err)
		log.Error("run failed", "error", err)
		p.publish(ctx, eventstream.RunEvent{
			EventType: eventstream.EventTypeRunFinished,
			RunID:     r.RunID,
			Error:     err.Error(),
		})
		return nil, err
	}

	p.logf("run %s finished in %s", r.RunID, r.Finished.Sub(r.Started).Round(time.Millisecond))
	log.Info("run finished",
		"queries", len(r.Queries),
		"references", len(r.References),
		"scores", r.scoreCount(),
	)
	p.publish(ctx, eventstream.RunEvent{
		EventType: eventstream.EventTypeRunFinished,
		RunID:     r.RunID,
		Counts: eventstream.RunCounts{
			Queries:    len(r.Queries),
			References: len(r.References),
			Scores:     r.scoreCount(),
		},
	})
	return r, nil
}

func (p *Pipeline) execute(ctx context.Context, r *Result, queryPaths, referencePaths []string, log *slog.Logger) error {
	// Resolve every computation and both processors before touching any
	// source file, so configuration typos fail without import cost.
	plan, err := p.prepare(log)
	if err != nil {
		return err
	}

	err = p.stage(ctx, r, StageImporting, func() error {
		if err := checkSources(queryPaths, referencePaths); err != nil {
			return err
		}

		queries, err := loadSources(queryPaths, log)
		if err != nil {
			return err
		}
		r.Queries = queries

		if r.Symmetric {
			r.References = r.Queries
			return nil
		}

		references, err := loadSources(referencePaths, log)
		if err != nil {
			return err
		}
		r.References = references
		return nil
	})
	if err != nil {
		return err
	}
	p.logf("imported %d query and %d reference spectra", len(r.Queries), len(r.References))

	err = p.stage(ctx, r, StageProcessingQueries, func() error {
		r.Queries, r.QueryReport = plan.queries.Process(r.Queries)
		p.logReport(r.QueryReport)
		if r.Symmetric {
			r.References = r.Queries
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !r.Symmetric {
		err = p.stage(ctx, r, StageProcessingReferences, func() error {
			r.References, r.ReferenceReport = plan.references.Process(r.References)
			p.logReport(r.ReferenceReport)
			return nil
		})
		if err != nil {
			return err
		}
	}

	return p.stage(ctx, r, StageComputingScores, func() error {
		for i, op := range plan.ops {
			if err := p.applyScoreOp(ctx, r, op); err != nil {
				return fmt.Errorf("score computation %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// runPlan is the validated, fully resolved execution plan of one run.
type runPlan struct {
	queries    *process.Processor
	references *process.Processor
	ops        []scoreOp
}

// scoreOp is one resolved score computation: either a masking operation
// or an instantiated measure.
type scoreOp struct {
	measure similarity.Measure

	mask bool
	name string
	low  *float64
	high *float64
}

func (p *Pipeline) prepare(log *slog.Logger) (*runPlan, error) {
	plan := &runPlan{}

	var err error
	if plan.queries, err = p.wf.QueryProcessor(log); err != nil {
		return nil, fmt.Errorf("building query processor: %w", err)
	}
	if plan.references, err = p.wf.ReferenceProcessor(log); err != nil {
		return nil, fmt.Errorf("building reference processor: %w", err)
	}

	for i, step := range p.wf.ScoreComputations() {
		if step.Name == workflow.MaskingOp {
			name, low, high, err := step.MaskBounds()
			if err != nil {
				return nil, fmt.Errorf("score computation %d: %w", i+1, err)
			}
			plan.ops = append(plan.ops, scoreOp{mask: true, name: name, low: low, high: high})
			continue
		}

		m, err := p.wf.BuildMeasure(step)
		if err != nil {
			return nil, fmt.Errorf("score computation %d: %w", i+1, err)
		}
		plan.ops = append(plan.ops, scoreOp{measure: m})
	}
	return plan, nil
}

func (p *Pipeline) applyScoreOp(ctx context.Context, r *Result, op scoreOp) error {
	if op.mask {
		if r.Matrix == nil {
			return fmt.Errorf("masking before any scores: %w", workflow.ErrConfiguration)
		}
		if err := r.Matrix.FilterByRange(op.name, op.low, op.high); err != nil {
			if errors.Is(err, scores.ErrUnknownScoreName) {
				return fmt.Errorf("%v: %w", err, workflow.ErrConfiguration)
			}
			return err
		}
		p.logf("masked scores down to %d coordinates", r.Matrix.Len())
		return nil
	}

	if r.Matrix == nil {
		matrix, err := scores.Initialize(ctx, op.measure, r.References, r.Queries, r.Symmetric, p.workers)
		if err != nil {
			return err
		}
		r.Matrix = matrix
	} else {
		if err := r.Matrix.Extend(ctx, op.measure); err != nil {
			return err
		}
	}
	p.logf("computed %s, %d coordinates retained", op.measure.Name(), r.Matrix.Len())
	return nil
}

// stage runs one stage body, recording its timing and publishing a
// completion event. A failure is wrapped with the stage name and aborts
// the run.
func (p *Pipeline) stage(ctx context.Context, r *Result, s Stage, fn func() error) error {
	start := time.Now()
	p.logf("stage %s started", s)

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", s, err)
	}

	elapsed := time.Since(start)
	r.Timings = append(r.Timings, StageTiming{Stage: s, Elapsed: elapsed})
	p.logf("stage %s completed in %s", s, elapsed.Round(time.Millisecond))
	p.publish(ctx, eventstream.RunEvent{
		EventType: eventstream.EventTypeStageCompleted,
		RunID:     r.RunID,
		Stage:     string(s),
		Counts: eventstream.RunCounts{
			Queries:    len(r.Queries),
			References: len(r.References),
			Scores:     r.scoreCount(),
		},
	})
	return nil
}

// checkSources stats every source file and checks its extension before
// anything is loaded, so a bad path fails the run without processing
// cost.
func checkSources(queryPaths, referencePaths []string) error {
	for _, path := range append(append([]string{}, queryPaths...), referencePaths...) {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInput)
		}
		if !specio.Supported(path) {
			return fmt.Errorf("unsupported source format %q: %w", path, ErrInput)
		}
	}
	return nil
}

func loadSources(paths []string, log *slog.Logger) ([]*spectrum.Spectrum, error) {
	var all []*spectrum.Spectrum
	for _, path := range paths {
		spectra, err := specio.Load(path, log)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInput)
		}
		all = append(all, spectra...)
	}
	return all, nil
}

// logf appends one timestamped line to the run log sink, if any.
func (p *Pipeline) logf(format string, args ...any) {
	if p.runLog == nil {
		return
	}
	fmt.Fprintf(p.runLog, "%s %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

func (p *Pipeline) logReport(report *process.Report) {
	if p.runLog == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(report.String(), "\n"), "\n") {
		p.logf("%s", line)
	}
}

// publish emits one event, stamping the schema version and time. Publish
// failures are logged and ignored; events never affect a run's outcome.
func (p *Pipeline) publish(ctx context.Context, event eventstream.RunEvent) {
	event.SchemaVersion = eventstream.SchemaVersionV1
	event.EmittedAt = time.Now()
	if err := p.events.PublishRun(ctx, &event); err != nil {
		p.log.Warn("publishing run event failed",
			"event_type", event.EventType,
			"error", err,
		)
	}
}
