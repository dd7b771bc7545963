// Package servecmder provides the serve command that runs the qpv API server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/api"
	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/deps"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/logger"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

type ServeCommander struct {
	cfg       *config.Config
	configDir string
	debug     bool
	pretty    bool
	logFile   string
	logger    *slog.Logger

	// flag targets; their values reach cfg through viper
	listen         string
	storageDriver  string
	postgresDSN    string
	sqlitePath     string
	verifierModel  string
	allowedHosts   []string
	embeddingProv  string
	embeddingTgt   string
	embeddingModel string
	embeddingDims  uint
	activityProv   string
	kafkaBrokers   []string
	mcpEnabled     bool
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagPostgresDSN,
	config.FlagSQLite,
	config.FlagVerifierModel,
	config.FlagAllowedHosts,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagActivityProv,
	config.FlagKafkaBrokers,
	config.FlagMCPEnabled,
}

const serveLongDesc string = `Run the qpv API server.

Serves the admin duplicate review endpoints under /v1/admin, semantic search
under /v1/patterns/search and, when enabled, the MCP endpoint at /mcp.

Settings are resolved in order: flags, QPV_* environment variables,
config.toml in the .qpv/ directory, then defaults.

Duplicate verification needs an Anthropic API key (qpv auth anthropic) and at
least one allowed thumbnail host. Search needs an embedder. Without them the
server still starts and those endpoints answer 503.

The duplicates endpoint reads the similarity index built by
"qpv similarities compute". Pairs below its --min-similarity floor (default
0.85) are never indexed, so a lower threshold returns no extra pairs.

--log-file appends JSON records, including every admin delete and
verification, to a file alongside the console output.

Examples:
  qpv serve
  qpv serve --pretty --log-file /var/log/qpv/activity.log
  qpv serve --storage postgres --postgres postgres://localhost:5432/qpv
  qpv serve --thumbnail-hosts storage.example.com --listen :9000`

const serveShortDesc string = "Run the qpv API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagVerifierModel, &cmder.verifierModel)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagAllowedHosts, &cmder.allowedHosts)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagActivityProv, &cmder.activityProv)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMCPEnabled, &cmder.mcpEnabled)
	cmd.Flags().BoolVar(&cmder.pretty, "pretty", false, "Human readable log output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(c.pretty))
	if c.logFile != "" {
		fileLogger, closer, err := logger.OpenFile(c.logFile,
			logger.WithDebug(c.debug),
			logger.WithAttrs("service", "qpv", "version", utils.Version),
		)
		if err != nil {
			return err
		}
		defer closer.Close()
		c.logger = logger.Multi(c.logger, fileLogger)
	}
	c.logger.Info("starting qpv server", "storage", c.cfg.Storage.Driver, "listen", c.cfg.API.Listen)

	driver, err := deps.NewDriver(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	verifier, err := deps.NewVerifier(c.cfg, c.configDir, driver, c.logger)
	switch {
	case errors.Is(err, deps.ErrNotConfigured):
		c.logger.Warn("duplicate verification disabled", "reason", err)
	case err != nil:
		return fmt.Errorf("creating verifier: %w", err)
	}

	embedder, err := deps.NewEmbedder(c.cfg, c.configDir)
	switch {
	case errors.Is(err, deps.ErrNotConfigured):
		c.logger.Warn("pattern search disabled", "reason", err)
	case err != nil:
		return fmt.Errorf("creating embedder: %w", err)
	}

	publisher, err := deps.NewPublisher(c.cfg)
	if err != nil {
		return fmt.Errorf("creating activity publisher: %w", err)
	}
	defer publisher.Close()

	apiConfig := api.Config{
		ListenAddr: c.cfg.API.Listen,
		Resolver:   deps.NewResolver(c.cfg, c.logger),
		Embedder:   embedder,
		Publisher:  publisher,
		MCP:        c.cfg.MCP.Enabled,
	}
	// A typed nil *verify.Verifier must not reach the interface field.
	if verifier != nil {
		apiConfig.Verifier = verifier
	}

	server, err := api.NewServer(apiConfig, driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
