// Package watchcmder provides the watch command for scoring spectra files
// as they are dropped into a directory.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/config"
	"github.com/spectralworks/specmatch/pkg/dotdir"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/pipeline"
	"github.com/spectralworks/specmatch/pkg/specio"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

// settleDelay is how long a dropped file must sit quiet before it is
// scored. Copies arrive as a burst of writes; scoring a half-written
// file would fail the run.
const settleDelay = 500 * time.Millisecond

const watchLongDesc string = `Watch a directory and score spectra files dropped into it.

Each supported spectra file that appears in the directory is run through
the workflow against the references, and its score document is written to
the output directory as <name>.scores.json.

References come from --references, falling back to the configured
spectral library. The workflow comes from --workflow, falling back to
the workspace's active workflow.

Examples:
  specmatch watch incoming/
  specmatch watch -r library.db -o results/ incoming/
  specmatch watch -f workflow.yaml incoming/`

const watchShortDesc string = "Score spectra files dropped into a directory"

type watchCommander struct {
	workflowPath string
	references   []string
	outputDir    string
	library      string
	workers      uint

	debug     bool
	configDir string
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagWorkers,
				config.FlagLibrary,
			})
			cmder.workers = v.GetUint("processing.workers")
			cmder.library = v.GetString("library.path")

			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.workflowPath, "workflow", "f", "", "Workflow YAML file (default: the workspace's active workflow)")
	cmd.Flags().StringSliceVarP(&cmder.references, "references", "r", nil, "Reference spectra files (default: the configured library)")
	cmd.Flags().StringVarP(&cmder.outputDir, "output-dir", "o", "scores", "Directory for score documents")
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)

	return cmd
}

func (c *watchCommander) run(ctx context.Context, dir string) error {
	logFile, err := c.openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Pretty output on the terminal, JSON in the log file.
	log := logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true)),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(logFile)),
	)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	wf, err := c.loadWorkflow()
	if err != nil {
		return err
	}

	if err := c.resolveReferences(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	pipe, err := pipeline.New(pipeline.Config{
		Workflow: wf,
		Workers:  int(c.workers), //nolint:gosec // bounded by the flag type
		Logger:   log,
	})
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log.Info("watching for spectra files", "dir", dir, "references", c.references)
	fmt.Printf("Watching %s (scores go to %s), Ctrl-C to stop\n", dir, c.outputDir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	pending := make(map[string]struct{})
	timer := time.NewTimer(settleDelay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-sigChan:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !specio.Supported(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(settleDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)

		case <-timer.C:
			for path := range pending {
				c.scoreFile(ctx, pipe, log, path)
			}
			clear(pending)
		}
	}
}

// openLogFile opens the watch log in the .specmatch directory for
// appending.
func (c *watchCommander) openLogFile() (*os.File, error) {
	target, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving log directory: %w", err)
	}

	path := filepath.Join(target, "watch.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// loadWorkflow resolves the workflow file: the --workflow flag wins, then
// the workspace's active workflow.
func (c *watchCommander) loadWorkflow() (*workflow.Workflow, error) {
	path := c.workflowPath
	if path == "" {
		state, err := dotdir.NewManager().LoadWorkspaceState(c.configDir)
		if err != nil {
			return nil, fmt.Errorf("loading workspace state: %w", err)
		}
		if state != nil {
			path = state.WorkflowPath
		}
	}
	if path == "" {
		return nil, errors.New(`no workflow file: pass --workflow or run "specmatch workflow init"`)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workflow: %w", err)
	}
	defer f.Close()

	wf, err := workflow.Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", path, err)
	}

	return wf, nil
}

// resolveReferences falls back to the configured library when no reference
// files are given explicitly.
func (c *watchCommander) resolveReferences() error {
	if len(c.references) > 0 {
		return nil
	}

	if _, err := os.Stat(c.library); err == nil {
		c.references = []string{c.library}
		return nil
	}

	return errors.New(`no references: pass --references or import a library with "specmatch library import"`)
}

// scoreFile runs one pipeline pass for a dropped file. Failures only log
// so one bad drop does not stop the watch.
func (c *watchCommander) scoreFile(ctx context.Context, pipe *pipeline.Pipeline, log *slog.Logger, path string) {
	result, err := pipe.Run(ctx, []string{path}, c.references)
	if err != nil {
		log.Error("scoring dropped file failed", "path", path, "error", err)
		return
	}

	if result.Matrix == nil {
		log.Warn("workflow has no score computations, nothing to write", "path", path)
		return
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(c.outputDir, base+".scores.json")
	if err := writeDoc(outPath, result.Matrix.WriteJSON); err != nil {
		log.Error("writing score document failed", "path", path, "error", err)
		return
	}

	fmt.Printf("Scored %s: %d pairs -> %s\n", filepath.Base(path), result.Matrix.Len(), outPath)
}

func writeDoc(path string, write func(io.Writer) error) error {
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
