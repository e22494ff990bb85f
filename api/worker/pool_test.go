package worker

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spectralworks/specmatch/pkg/archive"
	"github.com/spectralworks/specmatch/pkg/archive/inmemory"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/metrics"
	"github.com/spectralworks/specmatch/pkg/scores"
	"github.com/spectralworks/specmatch/pkg/similarity"
	"github.com/spectralworks/specmatch/pkg/specio"
	"github.com/spectralworks/specmatch/pkg/spectrum"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

// newTestPool creates a worker pool backed by an in-memory archive driver.
// Callers should "wp.Close()" to drain enqueued runs before asserting
// archive state.
func newTestPool(m *metrics.Metrics) (*Pool, *inmemory.Driver) {
	driver := inmemory.NewDriver()

	wp, err := NewPool(&Config{
		Driver:  driver,
		Metrics: m,
		Logger:  logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, driver
}

// cosineWorkflow builds a workflow with one cosine score computation.
func cosineWorkflow() *workflow.Workflow {
	w, err := workflow.New(workflow.Config{
		ScoreComputations: []workflow.ScoreStep{
			{Name: "cosinegreedy", Options: similarity.Options{"tolerance": 0.2}},
		},
	})
	Expect(err).NotTo(HaveOccurred())
	return w
}

// writeOverlapFile saves two spectra sharing both mz positions to an MSP
// file under dir.
func writeOverlapFile(dir string) string {
	one := testSpectrum("One", []float64{100, 200}, []float64{1.0, 0.1})
	two := testSpectrum("Two", []float64{100, 200}, []float64{0.1, 1.0})

	path := filepath.Join(dir, "spectra.msp")
	Expect(specio.Save(path, []*spectrum.Spectrum{one, two})).To(Succeed())
	return path
}

func testSpectrum(name string, mzs, ints []float64) *spectrum.Spectrum {
	peaks, err := spectrum.NewPeaks(mzs, ints)
	Expect(err).NotTo(HaveOccurred())
	return spectrum.New(peaks, spectrum.NewMetadata(map[string]any{"name": name}))
}

func scrapeMetrics(m *metrics.Metrics) string {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	return rec.Body.String()
}

var _ = Describe("Worker Pool", func() {
	var (
		ctx context.Context
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
	})

	Describe("NewPool", func() {
		It("requires an archive driver", func() {
			_, err := NewPool(&Config{})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("archive driver"))
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, _ := newTestPool(nil)

			ok := wp.Enqueue(Job{
				RunID:      "run-1",
				Workflow:   cosineWorkflow(),
				QueryPaths: []string{writeOverlapFile(dir)},
			})
			Expect(ok).To(BeTrue())
			wp.Close()
		})

		It("drops the job and clears its status when the queue is full", func() {
			// Construct the pool by hand with no workers so the queue
			// cannot drain.
			p := &Pool{
				config:   &Config{},
				queue:    make(chan Job, 1),
				log:      logger.Nop(),
				statuses: make(map[string]string),
			}

			Expect(p.Enqueue(Job{RunID: "one"})).To(BeTrue())
			Expect(p.Enqueue(Job{RunID: "two"})).To(BeFalse())

			status, ok := p.Status("one")
			Expect(ok).To(BeTrue())
			Expect(status).To(Equal(archive.StatusPending))

			_, ok = p.Status("two")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Status", func() {
		It("tracks pending and running runs and sorts InFlight by run ID", func() {
			p := &Pool{
				config:   &Config{},
				queue:    make(chan Job, 1),
				log:      logger.Nop(),
				statuses: make(map[string]string),
			}

			p.setStatus("b", archive.StatusRunning)
			p.setStatus("a", archive.StatusPending)

			Expect(p.InFlight()).To(Equal([]RunStatus{
				{RunID: "a", Status: archive.StatusPending},
				{RunID: "b", Status: archive.StatusRunning},
			}))

			p.clearStatus("a")
			_, ok := p.Status("a")
			Expect(ok).To(BeFalse())
		})

		It("reports no status for finished runs", func() {
			wp, _ := newTestPool(nil)

			wp.Enqueue(Job{
				RunID:      "run-1",
				Workflow:   cosineWorkflow(),
				QueryPaths: []string{writeOverlapFile(dir)},
			})
			wp.Close()

			_, ok := wp.Status("run-1")
			Expect(ok).To(BeFalse())
			Expect(wp.InFlight()).To(BeEmpty())
		})
	})

	Describe("run archiving", func() {
		It("archives a completed run with counts, workflow, and scores", func() {
			wp, driver := newTestPool(nil)

			wp.Enqueue(Job{
				RunID:      "run-1",
				Workflow:   cosineWorkflow(),
				QueryPaths: []string{writeOverlapFile(dir)},
			})

			// Drain the worker pool to ensure archiving completes before assertions
			wp.Close()

			rec, err := driver.GetRun(ctx, "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(archive.StatusCompleted))
			Expect(rec.Error).To(BeEmpty())
			Expect(rec.CreatedAt).NotTo(BeZero())

			// The symmetric run aliases references to the queries.
			Expect(rec.QueryCount).To(Equal(2))
			Expect(rec.ReferenceCount).To(Equal(2))
			Expect(rec.ScoreCount).To(Equal(4))

			// The workflow round-trips through its YAML form.
			wf, err := workflow.Load(bytes.NewReader(rec.Workflow))
			Expect(err).NotTo(HaveOccurred())
			Expect(wf.ScoreComputations()).To(HaveLen(1))
			Expect(wf.ScoreComputations()[0].Name).To(Equal("cosinegreedy"))

			// The score data is the JSON score document.
			doc, err := scores.ReadJSON(bytes.NewReader(rec.ScoreData))
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Columns).To(Equal([]string{"CosineGreedy_score", "CosineGreedy_matches"}))
			Expect(doc.Entries).To(HaveLen(4))
		})

		It("archives a failed run with its error", func() {
			wp, driver := newTestPool(nil)

			wp.Enqueue(Job{
				RunID:      "run-bad",
				Workflow:   cosineWorkflow(),
				QueryPaths: []string{filepath.Join(dir, "missing.msp")},
			})
			wp.Close()

			rec, err := driver.GetRun(ctx, "run-bad")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(archive.StatusFailed))
			Expect(rec.Error).To(ContainSubstring("importing"))
			Expect(rec.QueryCount).To(BeZero())
			Expect(rec.ScoreData).To(BeNil())

			// The workflow is still recorded for failed runs.
			Expect(rec.Workflow).NotTo(BeEmpty())
		})

		It("drains all queued runs on Close", func() {
			wp, driver := newTestPool(nil)
			source := writeOverlapFile(dir)

			for _, id := range []string{"run-1", "run-2", "run-3"} {
				wp.Enqueue(Job{
					RunID:      id,
					Workflow:   cosineWorkflow(),
					QueryPaths: []string{source},
				})
			}
			wp.Close()

			Expect(driver.Count()).To(Equal(3))
		})
	})

	Describe("metrics", func() {
		It("records run outcome, spectra, and score counters", func() {
			m := metrics.New()
			wp, _ := newTestPool(m)

			wp.Enqueue(Job{
				RunID:      "run-1",
				Workflow:   cosineWorkflow(),
				QueryPaths: []string{writeOverlapFile(dir)},
			})
			wp.Close()

			body := scrapeMetrics(m)
			Expect(body).To(ContainSubstring(`runs_total{status="completed"} 1`))
			Expect(body).To(ContainSubstring(`run_duration_seconds_count 1`))
			Expect(body).To(ContainSubstring(`spectra_imported_total{role="query"} 2`))
			Expect(body).To(ContainSubstring(`scores_computed_total 4`))
			Expect(body).To(ContainSubstring("run_queue_depth 0"))
			Expect(body).To(ContainSubstring("runs_in_flight 0"))

			// Symmetric runs never import references separately.
			Expect(body).NotTo(ContainSubstring(`spectra_imported_total{role="reference"}`))
		})

		It("counts failed runs by status", func() {
			m := metrics.New()
			wp, _ := newTestPool(m)

			wp.Enqueue(Job{
				RunID:      "run-bad",
				Workflow:   cosineWorkflow(),
				QueryPaths: []string{filepath.Join(dir, "missing.msp")},
			})
			wp.Close()

			body := scrapeMetrics(m)
			Expect(body).To(ContainSubstring(`runs_total{status="failed"} 1`))
		})
	})
})
