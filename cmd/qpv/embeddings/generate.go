package embeddingscmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/deps"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/logger"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

type generateCommander struct {
	cfg       *config.Config
	configDir string

	batchSize int
	limit     int
	delay     time.Duration

	storageDriver  string
	postgresDSN    string
	sqlitePath     string
	allowedHosts   []string
	embeddingProv  string
	embeddingModel string

	debug  bool
	logger *slog.Logger
}

var generateFlags = []string{
	config.FlagStorageDriver,
	config.FlagPostgresDSN,
	config.FlagSQLite,
	config.FlagAllowedHosts,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingModel,
}

const generateLongDesc string = `Embed the thumbnails of patterns that have no embedding yet.

Each thumbnail is downloaded through the same host allow-list the verifier
uses, embedded with the configured multimodal model (voyage) as a document,
and written back to the pattern store. Patterns whose thumbnail cannot be
fetched or embedded are reported and skipped.

Run qpv similarities compute afterwards to refresh the duplicate index.

Examples:
  qpv embeddings generate --storage postgres --thumbnail-hosts cdn.example.com
  qpv embeddings generate --limit 100 --delay 1s`

const generateShortDesc string = "Embed thumbnails of patterns without embeddings"

func newGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, generateFlags)

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagAllowedHosts, &cmder.allowedHosts)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	cmd.Flags().IntVar(&cmder.batchSize, "batch-size", 10, "Patterns listed per store query")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 0, "Stop after this many patterns (0 for all)")
	cmd.Flags().DurationVar(&cmder.delay, "delay", 500*time.Millisecond, "Pause between embedding calls")

	return cmd
}

func (c *generateCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.cfg.Storage.Driver == config.DriverInMemory || c.cfg.Storage.Driver == "" {
		return errors.New("the in-memory store is discarded on exit; use --storage sqlite or postgres")
	}
	if c.limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", c.limit)
	}

	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	fetcher, err := deps.NewFetcher(c.cfg)
	if err != nil {
		return err
	}
	embedder, err := deps.NewImageEmbedder(c.cfg, c.configDir)
	if err != nil {
		return err
	}
	defer embedder.Close()

	driver, err := deps.NewDriver(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	store, ok := driver.(patterns.EmbeddingWriter)
	if !ok {
		return fmt.Errorf("storage driver %q cannot store embeddings", c.cfg.Storage.Driver)
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Generating pattern embeddings"))

	var res *Result
	err = cliui.Step(os.Stdout, "Embedding thumbnails", func() error {
		res, err = Generate(ctx, store, fetcher, embedder, Options{
			BatchSize: c.batchSize,
			Limit:     c.limit,
			Delay:     c.delay,
			Logger:    c.logger,
			Progress: func(embedded, failed int) {
				c.logger.Debug("embedding progress", "embedded", embedded, "failed", failed)
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Embedded:"), cliui.ValueStyle.Render(strconv.Itoa(res.Embedded)))
	fmt.Printf("  %s    %s\n\n", cliui.KeyStyle.Render("Failed:"), cliui.ValueStyle.Render(strconv.Itoa(len(res.Failed))))
	if len(res.Failed) > 0 {
		c.logger.Warn("some patterns were not embedded", "pattern_ids", res.Failed)
	}
	return nil
}
