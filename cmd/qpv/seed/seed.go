// Package seedcmder provides the seed command for importing patterns and their
// embeddings into a pattern store.
package seedcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/deps"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/logger"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

const seedLongDesc string = `Import patterns into the pattern store.

Reads a JSON array of patterns from the given file, or from stdin when the
file is "-". Each entry may carry its embedding:

  [{"id": 1, "file_name": "feather", "file_extension": "qli",
    "author": "A. Quilter", "thumbnail_url": "https://...",
    "embedding": [0.12, -0.03, ...]}]

Existing patterns with the same id are replaced. Run
qpv similarities compute afterwards to refresh the duplicate index.

Examples:
  qpv seed patterns.json --storage sqlite --sqlite ./qpv.sqlite
  cat patterns.json | qpv seed - --storage postgres`

const seedShortDesc string = "Import patterns from JSON"

// Record is one pattern in a seed file.
type Record struct {
	patterns.Pattern
	Embedding []float32 `json:"embedding,omitempty"`
}

type seedCommander struct {
	cfg       *config.Config
	configDir string

	storageDriver string
	postgresDSN   string
	sqlitePath    string

	debug  bool
	logger *slog.Logger
}

var seedFlags = []string{
	config.FlagStorageDriver,
	config.FlagPostgresDSN,
	config.FlagSQLite,
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed <file.json>",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, seedFlags)

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *seedCommander) run(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.cfg.Storage.Driver == config.DriverInMemory || c.cfg.Storage.Driver == "" {
		return errors.New("the in-memory store is discarded on exit; use --storage sqlite or postgres")
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening seed file: %w", err)
		}
		defer f.Close()
		r = f
	}

	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	driver, err := deps.NewDriver(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	importer, ok := driver.(patterns.Importer)
	if !ok {
		return fmt.Errorf("storage driver %q does not accept imports", c.cfg.Storage.Driver)
	}

	var count int
	if err := cliui.Step(os.Stdout, "Importing patterns", func() error {
		count, err = Import(ctx, r, importer)
		return err
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Imported %s patterns into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(count)),
		cliui.DimStyle.Render(c.cfg.Storage.Driver),
	)
	return nil
}

// Import decodes a JSON array of Records from r and stores each one. It
// validates every record before writing any of them.
func Import(ctx context.Context, r io.Reader, importer patterns.Importer) (int, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decoding seed file: %w", err)
	}

	for i, rec := range records {
		if rec.ID <= 0 {
			return 0, fmt.Errorf("record %d: id must be positive", i)
		}
		if rec.FileName == "" {
			return 0, fmt.Errorf("record %d (id %d): file_name is required", i, rec.ID)
		}
	}

	for i := range records {
		p := records[i].Pattern
		p.Embedding = records[i].Embedding
		if err := importer.Put(ctx, &p); err != nil {
			return i, fmt.Errorf("importing pattern %d: %w", p.ID, err)
		}
	}

	return len(records), nil
}
