// Package runscmder provides the runs subcommand for inspecting runs on
// a specmatch API server.
package runscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/utils"
)

type runsCommander struct {
	runID string
	api   string
	debug bool

	log *slog.Logger
}

// runResponse mirrors the API's RunResponse type for JSON deserialization.
type runResponse struct {
	RunID          string     `json:"run_id"`
	Status         string     `json:"status"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Error          string     `json:"error,omitempty"`
	QueryCount     int        `json:"query_count,omitempty"`
	ReferenceCount int        `json:"reference_count,omitempty"`
	ScoreCount     int        `json:"score_count,omitempty"`
	Workflow       string     `json:"workflow,omitempty"`
}

const runsLongDesc string = `Inspect runs on a specmatch API server.

Without arguments, lists every run the server knows about, in-flight
runs first. With a run ID, shows the full detail for that run,
including the workflow it executed.

Examples:
  specmatch runs                            List all runs
  specmatch runs 4f47ac4b                   Show one run
  specmatch runs --api http://host:8081     Use a remote server`

const runsShortDesc string = "Inspect runs on the API server"

func NewRunsCmd() *cobra.Command {
	cmder := &runsCommander{}

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: runsShortDesc,
		Long:  runsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cmder.runID = args[0]
			}

			cmder.debug, _ = cmd.Flags().GetBool("debug")

			var err error
			cmder.api, err = cmd.Flags().GetString("api")
			if err != nil {
				return fmt.Errorf("could not get api flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&cmder.api, "api", "a", "http://localhost:8081", "Specmatch API server address")

	return cmd
}

func (c *runsCommander) run(ctx context.Context) error {
	c.log = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	if c.runID == "" {
		runs, err := c.fetchRuns(ctx)
		if err != nil {
			return fmt.Errorf("fetching runs: %w", err)
		}
		c.printList(runs)
		return nil
	}

	c.log.Debug("fetching run", "id", c.runID, "api", c.api)

	rec, err := c.fetchRun(ctx, c.runID)
	if err != nil {
		return fmt.Errorf("fetching run: %w", err)
	}
	c.printRun(rec)

	return nil
}

// fetchRuns calls the API for the full run listing.
func (c *runsCommander) fetchRuns(ctx context.Context) ([]runResponse, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("%s/runs", c.api))
	if err != nil {
		return nil, err
	}

	var runs []runResponse
	if err := json.Unmarshal(body, &runs); err != nil {
		return nil, fmt.Errorf("parsing API response: %w", err)
	}
	return runs, nil
}

// fetchRun calls the API for a single run by ID.
func (c *runsCommander) fetchRun(ctx context.Context, id string) (*runResponse, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("%s/runs/%s", c.api, id))
	if err != nil {
		return nil, err
	}

	var rec runResponse
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("parsing API response: %w", err)
	}
	return &rec, nil
}

// doGet performs a GET against the API and returns the response body.
func (c *runsCommander) doGet(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting runs from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading API response: %w", err)
	}
	return body, nil
}

func (c *runsCommander) printList(runs []runResponse) {
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return
	}

	fmt.Printf("%-36s  %-10s  %-19s  %s\n", "RUN", "STATUS", "CREATED", "RESULT")
	for _, r := range runs {
		created := "-"
		if r.CreatedAt != nil {
			created = r.CreatedAt.Format("2006-01-02 15:04:05")
		}

		result := ""
		switch {
		case r.Error != "":
			result = utils.Truncate(r.Error, 40)
		case r.ScoreCount > 0:
			result = fmt.Sprintf("%d scores", r.ScoreCount)
		}

		fmt.Printf("%-36s  %-10s  %-19s  %s\n", r.RunID, r.Status, created, result)
	}
}

func (c *runsCommander) printRun(r *runResponse) {
	fmt.Printf("Run %s\n", r.RunID)
	fmt.Printf("  Status:     %s\n", r.Status)
	if r.CreatedAt != nil {
		fmt.Printf("  Created:    %s\n", r.CreatedAt.Format(time.RFC3339))
	}
	if r.Error != "" {
		fmt.Printf("  Error:      %s\n", r.Error)
	}
	if r.QueryCount > 0 {
		fmt.Printf("  Queries:    %d\n", r.QueryCount)
		fmt.Printf("  References: %d\n", r.ReferenceCount)
		fmt.Printf("  Scores:     %d\n", r.ScoreCount)
	}
	if r.Workflow != "" {
		fmt.Printf("\nWorkflow:\n%s", r.Workflow)
	}
}
