// Package worker provides an asynchronous worker pool that executes scoring
// runs submitted through the API and persists their outcomes using the
// provided archive.Driver.
//
// The pool decouples run execution from the API's HTTP hot path so that run
// submission returns immediately with a run ID while the pipeline works in
// the background.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/spectralworks/specmatch/pkg/archive"
	"github.com/spectralworks/specmatch/pkg/eventstream"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/metrics"
	"github.com/spectralworks/specmatch/pkg/pipeline"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	RunID          string
	Workflow       *workflow.Workflow
	QueryPaths     []string
	ReferencePaths []string
}

// RunStatus is the in-flight state of one queued or executing run.
type RunStatus struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the archive backend for persisting finished runs.
	Driver archive.Driver

	// Publisher receives run lifecycle events. Optional.
	Publisher eventstream.Publisher

	// Metrics records queue depth and run outcomes. Optional.
	Metrics *metrics.Metrics

	// ScoringWorkers bounds the parallelism inside one run's measure
	// evaluations. Zero means one worker per CPU.
	ScoringWorkers int

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool executes scoring runs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	log    *slog.Logger

	mu       sync.Mutex
	statuses map[string]string
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker pool requires an archive driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config:   c,
		queue:    make(chan Job, c.QueueSize),
		log:      c.Logger,
		statuses: make(map[string]string),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := uint(0); i < c.NumWorkers; i++ {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a run for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	p.setStatus(job.RunID, archive.StatusPending)

	select {
	case p.queue <- job:
		if p.config.Metrics != nil {
			p.config.Metrics.QueueDepth.Inc()
		}
		p.log.Debug("run queued", "run_id", job.RunID)
		return true
	default:
		p.clearStatus(job.RunID)
		p.log.Error("run not queued, queue full, job dropped", "run_id", job.RunID)
		return false
	}
}

// Status reports the in-flight state of a run: pending while queued, running
// while executing. Finished runs leave the pool and live in the archive.
func (p *Pool) Status(runID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.statuses[runID]
	return s, ok
}

// InFlight returns every queued or executing run, sorted by run ID.
func (p *Pool) InFlight() []RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RunStatus, 0, len(p.statuses))
	for id, status := range p.statuses {
		out = append(out, RunStatus{RunID: id, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out
}

// Close signals workers to stop and waits for in-flight runs to drain.
// Call this during graceful shutdown after the API HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.log.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.log.Debug("run worker stopped", "worker_id", id)
}

// processJob executes one run end to end and archives the outcome.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	p.setStatus(job.RunID, archive.StatusRunning)
	defer p.clearStatus(job.RunID)

	if p.config.Metrics != nil {
		p.config.Metrics.QueueDepth.Dec()
		p.config.Metrics.RunsInFlight.Inc()
		defer p.config.Metrics.RunsInFlight.Dec()
	}

	started := time.Now()
	result, err := p.executeRun(ctx, job)

	record := &archive.Run{
		ID:        job.RunID,
		CreatedAt: started,
		Status:    archive.StatusCompleted,
		Workflow:  p.workflowYAML(job),
	}

	if err != nil {
		record.Status = archive.StatusFailed
		record.Error = err.Error()
		p.log.Error("run failed", "run_id", job.RunID, "error", err)
	} else {
		record.QueryCount = len(result.Queries)
		record.ReferenceCount = len(result.References)
		if result.Matrix != nil {
			record.ScoreCount = result.Matrix.Len()
			record.ScoreData = p.scoreJSON(job.RunID, result)
		}
		p.log.Info("run archived",
			"run_id", job.RunID,
			"queries", record.QueryCount,
			"references", record.ReferenceCount,
			"scores", record.ScoreCount,
		)
	}

	p.recordMetrics(record, result, time.Since(started))

	if err := p.config.Driver.SaveRun(ctx, record); err != nil {
		p.log.Error("archiving run failed", "run_id", job.RunID, "error", err)
	}
}

// executeRun builds a pipeline for the job's workflow and runs it under the
// job's run ID.
func (p *Pool) executeRun(ctx context.Context, job Job) (*pipeline.Result, error) {
	pl, err := pipeline.New(pipeline.Config{
		Workflow:  job.Workflow,
		Workers:   p.config.ScoringWorkers,
		Publisher: p.config.Publisher,
		Logger:    p.log,
	})
	if err != nil {
		return nil, err
	}

	return pl.RunWithID(ctx, job.RunID, job.QueryPaths, job.ReferencePaths)
}

// workflowYAML serializes the job's workflow for the archive record.
// Serialization failures are logged and leave the record without a workflow.
func (p *Pool) workflowYAML(job Job) []byte {
	if job.Workflow == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := job.Workflow.Save(&buf); err != nil {
		p.log.Warn("serializing workflow failed", "run_id", job.RunID, "error", err)
		return nil
	}
	return buf.Bytes()
}

// scoreJSON serializes the run's score matrix as the JSON score document the
// API range views re-read.
func (p *Pool) scoreJSON(runID string, result *pipeline.Result) []byte {
	var buf bytes.Buffer
	if err := result.Matrix.WriteJSON(&buf); err != nil {
		p.log.Warn("serializing scores failed", "run_id", runID, "error", err)
		return nil
	}
	return buf.Bytes()
}

func (p *Pool) recordMetrics(record *archive.Run, result *pipeline.Result, elapsed time.Duration) {
	m := p.config.Metrics
	if m == nil {
		return
	}

	m.ObserveRun(record.Status, elapsed.Seconds())

	if result == nil {
		return
	}
	m.SpectraImported.WithLabelValues("query").Add(float64(len(result.Queries)))
	if !result.Symmetric {
		m.SpectraImported.WithLabelValues("reference").Add(float64(len(result.References)))
	}
	m.ScoresComputed.Add(float64(record.ScoreCount))
}

func (p *Pool) setStatus(runID, status string) {
	p.mu.Lock()
	p.statuses[runID] = status
	p.mu.Unlock()
}

func (p *Pool) clearStatus(runID string) {
	p.mu.Lock()
	delete(p.statuses, runID)
	p.mu.Unlock()
}
