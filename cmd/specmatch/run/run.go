// Package runcmder provides the run command for executing one scoring run
// from the command line.
package runcmder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/archive"
	archiveutils "github.com/spectralworks/specmatch/pkg/archive/utils"
	"github.com/spectralworks/specmatch/pkg/config"
	"github.com/spectralworks/specmatch/pkg/dotdir"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/pipeline"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

const runLongDesc string = `Run one scoring pass over spectra files.

Queries are imported from the given files, processed through the workflow's
query filter chain, and scored against the references with every score
computation in the workflow, in order. With no --references the queries
are scored against themselves.

The workflow comes from --workflow, falling back to the workspace's active
workflow set by "specmatch workflow init".

Examples:
  specmatch run queries.msp
  specmatch run --references library.db queries.msp
  specmatch run -f workflow.yaml -o scores.tsv queries.msp
  specmatch run --archive --archive-provider sqlite --archive-target runs.db queries.msp`

const runShortDesc string = "Process and score spectra files"

type runCommander struct {
	workflowPath string
	references   []string
	outputTSV    string
	outputJSON   string
	runlogPath   string
	workers      uint
	archive      bool

	archiveProvider string
	archiveTarget   string

	debug     bool
	configDir string
}

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run <spectra-file>...",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagWorkers,
				config.FlagArchiveProvider,
				config.FlagArchiveTarget,
			})
			cmder.workers = v.GetUint("processing.workers")
			cmder.archiveProvider = v.GetString("archive.provider")
			cmder.archiveTarget = v.GetString("archive.target")

			return cmder.run(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&cmder.workflowPath, "workflow", "f", "", "Workflow YAML file (default: the workspace's active workflow)")
	cmd.Flags().StringSliceVarP(&cmder.references, "references", "r", nil, "Reference spectra files to score queries against")
	cmd.Flags().StringVarP(&cmder.outputTSV, "output-tsv", "o", "", "Write the score matrix as TSV to this file")
	cmd.Flags().StringVar(&cmder.outputJSON, "output-json", "", "Write the score document as JSON to this file")
	cmd.Flags().StringVar(&cmder.runlogPath, "runlog", "", "Append timestamped stage lines to this file")
	cmd.Flags().BoolVar(&cmder.archive, "archive", false, "Archive the run outcome")
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveProvider, &cmder.archiveProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveTarget, &cmder.archiveTarget)

	return cmd
}

func (c *runCommander) run(ctx context.Context, queryPaths []string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	wf, wfPath, err := c.loadWorkflow()
	if err != nil {
		return err
	}
	log.Debug("using workflow", "path", wfPath)

	var runLog io.Writer
	if c.runlogPath != "" {
		f, err := os.OpenFile(c.runlogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening run log: %w", err)
		}
		defer f.Close()
		runLog = f
	}

	pipe, err := pipeline.New(pipeline.Config{
		Workflow: wf,
		Workers:  int(c.workers), //nolint:gosec // bounded by the flag type
		RunLog:   runLog,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	started := time.Now()
	result, runErr := pipe.RunWithID(ctx, runID, queryPaths, c.references)

	if c.archive {
		if err := c.archiveRun(ctx, log, runID, started, wf, result, runErr); err != nil {
			log.Error("archiving run failed", "run_id", runID, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	c.printSummary(result)

	if err := c.writeOutputs(result); err != nil {
		return err
	}

	c.rememberRun(log, runID)

	return nil
}

// loadWorkflow resolves the workflow file: the --workflow flag wins, then
// the workspace's active workflow.
func (c *runCommander) loadWorkflow() (*workflow.Workflow, string, error) {
	path := c.workflowPath
	if path == "" {
		state, err := dotdir.NewManager().LoadWorkspaceState(c.configDir)
		if err != nil {
			return nil, "", fmt.Errorf("loading workspace state: %w", err)
		}
		if state != nil {
			path = state.WorkflowPath
		}
	}
	if path == "" {
		return nil, "", errors.New(`no workflow file: pass --workflow or run "specmatch workflow init"`)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening workflow: %w", err)
	}
	defer f.Close()

	wf, err := workflow.Load(f)
	if err != nil {
		return nil, "", fmt.Errorf("loading workflow %s: %w", path, err)
	}

	return wf, path, nil
}

func (c *runCommander) printSummary(result *pipeline.Result) {
	elapsed := result.Finished.Sub(result.Started).Round(time.Millisecond)
	fmt.Printf("Run %s finished in %s\n\n", result.RunID, elapsed)

	fmt.Printf("Queries: %s", result.QueryReport.String())
	if result.ReferenceReport != nil {
		fmt.Printf("References: %s", result.ReferenceReport.String())
	} else {
		fmt.Println("References: queries scored against themselves")
	}

	if result.Matrix != nil {
		fmt.Printf("\nScores: %d pairs (%s)\n", result.Matrix.Len(), strings.Join(result.Matrix.Names(), ", "))
	}
}

func (c *runCommander) writeOutputs(result *pipeline.Result) error {
	if c.outputTSV == "" && c.outputJSON == "" {
		return nil
	}
	if result.Matrix == nil {
		return errors.New("no scores to export: workflow has no score computations")
	}

	if c.outputTSV != "" {
		if err := writeMatrix(c.outputTSV, result.Matrix.WriteTSV); err != nil {
			return fmt.Errorf("writing scores TSV: %w", err)
		}
		fmt.Printf("Wrote %s\n", c.outputTSV)
	}

	if c.outputJSON != "" {
		if err := writeMatrix(c.outputJSON, result.Matrix.WriteJSON); err != nil {
			return fmt.Errorf("writing scores JSON: %w", err)
		}
		fmt.Printf("Wrote %s\n", c.outputJSON)
	}

	return nil
}

func writeMatrix(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// archiveRun persists the run outcome the same way the API worker pool
// does, so CLI runs and API runs land in one archive.
func (c *runCommander) archiveRun(ctx context.Context, log *slog.Logger, runID string, started time.Time, wf *workflow.Workflow, result *pipeline.Result, runErr error) error {
	if c.archiveProvider == "" || c.archiveProvider == archiveutils.InMemory {
		log.Warn("archive provider is inmemory; the archived run will not outlive this process")
	}

	driver, err := archiveutils.NewDriver(ctx, &archiveutils.NewDriverOpts{
		Provider: c.archiveProvider,
		Target:   c.archiveTarget,
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	record := &archive.Run{
		ID:        runID,
		CreatedAt: started,
		Status:    archive.StatusCompleted,
	}

	var wfBuf bytes.Buffer
	if err := wf.Save(&wfBuf); err == nil {
		record.Workflow = wfBuf.Bytes()
	}

	if runErr != nil {
		record.Status = archive.StatusFailed
		record.Error = runErr.Error()
	} else {
		record.QueryCount = len(result.Queries)
		record.ReferenceCount = len(result.References)
		if result.Matrix != nil {
			record.ScoreCount = result.Matrix.Len()
			var scoreBuf bytes.Buffer
			if err := result.Matrix.WriteJSON(&scoreBuf); err == nil {
				record.ScoreData = scoreBuf.Bytes()
			}
		}
	}

	if err := driver.SaveRun(ctx, record); err != nil {
		return err
	}

	fmt.Printf("Archived run %s\n", runID)
	return nil
}

// rememberRun records the finished run in the workspace. Failures only log,
// the run itself already succeeded.
func (c *runCommander) rememberRun(log *slog.Logger, runID string) {
	manager := dotdir.NewManager()

	state, err := manager.LoadWorkspaceState(c.configDir)
	if err != nil {
		log.Debug("loading workspace state failed", "error", err)
		return
	}
	if state == nil {
		state = &dotdir.WorkspaceState{}
	}

	state.LastRunID = runID
	if err := manager.SaveWorkspace(state, c.configDir); err != nil {
		log.Debug("saving workspace state failed", "error", err)
	}
}
