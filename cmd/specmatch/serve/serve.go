// Package servecmder provides the serve command for running the scoring
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/api"
	"github.com/spectralworks/specmatch/api/worker"
	archiveutils "github.com/spectralworks/specmatch/pkg/archive/utils"
	"github.com/spectralworks/specmatch/pkg/config"
	eventstreamutils "github.com/spectralworks/specmatch/pkg/eventstream/utils"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/metrics"
)

const serveLongDesc string = `Run the specmatch API server.

The server accepts scoring runs over HTTP, executes them on a worker
pool, and archives the outcomes. Run events are published to the
configured eventstream and Prometheus metrics are exposed on /metrics.

Flags fall back to config.toml values and SPECMATCH_* environment
variables.

Examples:
  specmatch serve
  specmatch serve --listen :9090 --archive-provider sqlite --archive-target runs.db
  specmatch serve --eventstream-provider kafka --eventstream-brokers broker1:9092,broker2:9092`

const serveShortDesc string = "Run the specmatch API server"

type ServeCommander struct {
	listen          string
	workers         uint
	archiveProvider string
	archiveTarget   string
	eventProvider   string
	eventBrokers    string
	eventTopic      string
	debug           bool

	log *slog.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAPIListenStandalone,
				config.FlagWorkers,
				config.FlagArchiveProvider,
				config.FlagArchiveTarget,
				config.FlagEventProvider,
				config.FlagEventBrokers,
				config.FlagEventTopic,
			})
			cmder.listen = v.GetString("api.listen")
			cmder.workers = v.GetUint("processing.workers")
			cmder.archiveProvider = v.GetString("archive.provider")
			cmder.archiveTarget = v.GetString("archive.target")
			cmder.eventProvider = v.GetString("eventstream.provider")
			cmder.eventBrokers = v.GetString("eventstream.brokers")
			cmder.eventTopic = v.GetString("eventstream.topic")

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListenStandalone, &cmder.listen)
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveProvider, &cmder.archiveProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveTarget, &cmder.archiveTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.log = logger.New(logger.WithDebug(c.debug), logger.WithJSON(true))

	// Create the shared archive
	driver, err := archiveutils.NewDriver(ctx, &archiveutils.NewDriverOpts{
		Provider: c.archiveProvider,
		Target:   c.archiveTarget,
	})
	if err != nil {
		return fmt.Errorf("creating archive driver: %w", err)
	}
	defer driver.Close()
	c.log.Info("using archive", "provider", c.archiveProvider, "target", c.archiveTarget)

	// Create the run event publisher
	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		Provider: c.eventProvider,
		Brokers:  c.eventBrokers,
		Topic:    c.eventTopic,
		Logger:   c.log,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()
	c.log.Info("using eventstream", "provider", c.eventProvider)

	m := metrics.New()

	// Create the worker pool runs execute on
	pool, err := worker.NewPool(&worker.Config{
		Driver:         driver,
		Publisher:      publisher,
		Metrics:        m,
		ScoringWorkers: int(c.workers), //nolint:gosec // bounded by the flag type
		Logger:         c.log,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}

	server := api.NewServer(api.Config{ListenAddr: c.listen}, driver, pool, m, c.log)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		pool.Close()
		return err
	case <-ctx.Done():
	case sig := <-sigChan:
		c.log.Info("received signal, shutting down", "signal", sig.String())
	}

	// Stop accepting requests first, then drain in-flight runs.
	if err := server.Shutdown(); err != nil {
		c.log.Error("shutting down API server", "error", err)
	}
	pool.Close()

	return nil
}
