package api

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spectralworks/specmatch/api/worker"
	"github.com/spectralworks/specmatch/pkg/archive"
	"github.com/spectralworks/specmatch/pkg/scores"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitRunRequest is the body of POST /runs.
type SubmitRunRequest struct {
	// Workflow is the YAML workflow definition the run executes.
	Workflow string `json:"workflow"`

	// Queries are paths to the query spectrum files.
	Queries []string `json:"queries"`

	// References are paths to the reference spectrum files. Empty means
	// the queries are scored against themselves.
	References []string `json:"references"`
}

// SubmitRunResponse acknowledges an accepted run.
type SubmitRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunResponse describes one run. Queued and executing runs carry only the
// ID and status; archived runs fill in the rest. The workflow YAML rides
// along only when fetching a single run.
type RunResponse struct {
	RunID          string     `json:"run_id"`
	Status         string     `json:"status"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Error          string     `json:"error,omitempty"`
	QueryCount     int        `json:"query_count,omitempty"`
	ReferenceCount int        `json:"reference_count,omitempty"`
	ScoreCount     int        `json:"score_count,omitempty"`
	Workflow       string     `json:"workflow,omitempty"`
}

// ScoresResponse is the body of GET /runs/:id/scores. Total counts the
// entries matching the range selection before any limit is applied.
type ScoresResponse struct {
	RunID   string         `json:"run_id"`
	Columns []string       `json:"columns"`
	Total   int            `json:"total"`
	Entries []scores.Entry `json:"entries"`
}

// CheckWorkflowRequest is the body of POST /workflow/check.
type CheckWorkflowRequest struct {
	// Workflow is the YAML workflow definition to validate.
	Workflow string `json:"workflow"`
}

// CheckWorkflowResponse reports whether a workflow definition parsed and
// what it contains.
type CheckWorkflowResponse struct {
	Valid             bool   `json:"valid"`
	Error             string `json:"error,omitempty"`
	QueryFilters      int    `json:"query_filters,omitempty"`
	ReferenceFilters  int    `json:"reference_filters,omitempty"`
	ScoreComputations int    `json:"score_computations,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSubmitRun accepts a run and queues it on the worker pool. The run
// executes asynchronously; poll GET /runs/:id for its outcome.
func (s *Server) handleSubmitRun(c *fiber.Ctx) error {
	var req SubmitRunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Workflow == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workflow is required"})
	}
	if len(req.Queries) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "at least one query path is required"})
	}

	wf, err := workflow.Load(strings.NewReader(req.Workflow))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid workflow: " + err.Error()})
	}

	runID := uuid.NewString()
	queued := s.pool.Enqueue(worker.Job{
		RunID:          runID,
		Workflow:       wf,
		QueryPaths:     req.Queries,
		ReferencePaths: req.References,
	})
	if !queued {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "run queue is full"})
	}

	return c.Status(fiber.StatusAccepted).JSON(SubmitRunResponse{
		RunID:  runID,
		Status: archive.StatusPending,
	})
}

// handleListRuns returns every known run, in-flight ones first and then
// archived ones newest first.
func (s *Server) handleListRuns(c *fiber.Ctx) error {
	// Read the pool before the archive. A run finishing in between shows
	// up in both sources rather than neither, because the pool drops its
	// status entry only after the archive write.
	inflight := s.pool.InFlight()

	recs, err := s.archive.ListRuns(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list runs"})
	}

	archived := make(map[string]bool, len(recs))
	for _, rec := range recs {
		archived[rec.ID] = true
	}

	out := make([]RunResponse, 0, len(inflight)+len(recs))
	for _, rs := range inflight {
		if archived[rs.RunID] {
			continue
		}
		out = append(out, RunResponse{RunID: rs.RunID, Status: rs.Status})
	}
	for _, rec := range recs {
		out = append(out, archivedRunResponse(rec, false))
	}

	return c.JSON(out)
}

// handleGetRun returns a single run by its ID, consulting the worker pool
// for runs that have not reached the archive yet.
func (s *Server) handleGetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	if status, ok := s.pool.Status(id); ok {
		return c.JSON(RunResponse{RunID: id, Status: status})
	}

	rec, err := s.archive.GetRun(c.Context(), id)
	if err != nil {
		var notFound archive.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get run"})
	}

	return c.JSON(archivedRunResponse(rec, true))
}

// handleGetRunScores returns the score matrix of a completed run. The
// name, low and high query parameters select a score column and value
// range; limit caps the number of returned entries (zero means all).
func (s *Server) handleGetRunScores(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	if _, ok := s.pool.Status(id); ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run has not finished"})
	}

	rec, err := s.archive.GetRun(c.Context(), id)
	if err != nil {
		var notFound archive.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get run"})
	}
	if len(rec.ScoreData) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run has no scores"})
	}

	doc, err := scores.ReadJSON(bytes.NewReader(rec.ScoreData))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read score data"})
	}

	low, err := queryFloat(c, "low")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "low must be a number"})
	}
	high, err := queryFloat(c, "high")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "high must be a number"})
	}

	entries, err := doc.Select(c.Query("name"), low, high)
	if err != nil {
		if errors.Is(err, scores.ErrUnknownScoreName) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to select scores"})
	}

	total := len(entries)
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a non-negative integer"})
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
	}

	return c.JSON(ScoresResponse{
		RunID:   id,
		Columns: doc.Columns,
		Total:   total,
		Entries: entries,
	})
}

// handleCheckWorkflow validates a workflow definition. A workflow that
// fails to parse is reported in the response body, not as an HTTP error;
// only a malformed request is a 400.
func (s *Server) handleCheckWorkflow(c *fiber.Ctx) error {
	var req CheckWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Workflow == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workflow is required"})
	}

	wf, err := workflow.Load(strings.NewReader(req.Workflow))
	if err != nil {
		return c.JSON(CheckWorkflowResponse{Valid: false, Error: err.Error()})
	}

	return c.JSON(CheckWorkflowResponse{
		Valid:             true,
		QueryFilters:      len(wf.QueryFilters()),
		ReferenceFilters:  len(wf.ReferenceFilters()),
		ScoreComputations: len(wf.ScoreComputations()),
	})
}

// archivedRunResponse maps an archive record onto the wire shape.
func archivedRunResponse(rec *archive.Run, includeWorkflow bool) RunResponse {
	created := rec.CreatedAt
	resp := RunResponse{
		RunID:          rec.ID,
		Status:         rec.Status,
		CreatedAt:      &created,
		Error:          rec.Error,
		QueryCount:     rec.QueryCount,
		ReferenceCount: rec.ReferenceCount,
		ScoreCount:     rec.ScoreCount,
	}
	if includeWorkflow {
		resp.Workflow = string(rec.Workflow)
	}
	return resp
}

// queryFloat parses an optional float query parameter, nil when absent.
func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
