package similaritiescmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/deps"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/dotdir"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/logger"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/similarity"
)

type computeCommander struct {
	cfg       *config.Config
	configDir string

	minSimilarity float64
	workers       int

	storageDriver string
	postgresDSN   string
	sqlitePath    string

	debug  bool
	logger *slog.Logger
}

var computeFlags = []string{
	config.FlagStorageDriver,
	config.FlagPostgresDSN,
	config.FlagSQLite,
}

const computeLongDesc string = `Rebuild the similarity index from stored pattern embeddings.

Compares every embedded pattern with every other one and replaces the index
with all pairs at or above --min-similarity. The duplicates endpoint can only
report pairs that made it into the index, so its threshold should not be set
below the value used here.

The index lives in the pattern store, so an in-memory store is rejected.

Examples:
  qpv similarities compute --storage sqlite --sqlite ./qpv.sqlite
  qpv similarities compute --min-similarity 0.9 --workers 8`

const computeShortDesc string = "Rebuild the similarity index"

func newComputeCmd() *cobra.Command {
	cmder := &computeCommander{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: computeShortDesc,
		Long:  computeLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, computeFlags)

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
	cmd.Flags().Float64Var(&cmder.minSimilarity, "min-similarity", similarity.DefaultMinSimilarity, "Lowest similarity kept in the index")
	cmd.Flags().IntVarP(&cmder.workers, "workers", "w", 4, "Concurrent comparison workers")

	return cmd
}

func (c *computeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.minSimilarity < 0 || c.minSimilarity > 1 {
		return fmt.Errorf("--min-similarity must be between 0 and 1, got %v", c.minSimilarity)
	}
	if c.cfg.Storage.Driver == config.DriverInMemory || c.cfg.Storage.Driver == "" {
		return fmt.Errorf("%w: the in-memory store is discarded on exit; use --storage sqlite or postgres", ErrNotIndexable)
	}

	// Logs go to stderr so they do not break the step output.
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	driver, err := deps.NewDriver(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Rebuilding similarity index"))

	var state *dotdir.IndexState
	err = cliui.Step(os.Stdout, "Comparing pattern embeddings", func() error {
		state, err = Compute(ctx, driver, similarity.Options{
			MinSimilarity: c.minSimilarity,
			Workers:       c.workers,
			Progress: func(done, total int) {
				c.logger.Debug("similarity progress", "done", done, "total", total)
			},
		})
		return err
	})
	if err != nil {
		return err
	}
	state.Store = c.cfg.Storage.Driver

	if err := dotdir.NewManager().SaveIndexState(state, c.configDir); err != nil {
		c.logger.Warn("could not record index build", "error", err)
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Patterns:"), cliui.ValueStyle.Render(strconv.Itoa(state.Patterns)))
	fmt.Printf("  %s     %s\n\n", cliui.KeyStyle.Render("Pairs:"), cliui.ValueStyle.Render(strconv.Itoa(state.Pairs)))
	return nil
}
