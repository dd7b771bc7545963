// Package qpvcmder
package qpvcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/auth"
	configcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/config"
	duplicatescmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/duplicates"
	embeddingscmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/embeddings"
	initcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/init"
	searchcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/search"
	seedcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/seed"
	servecmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/serve"
	similaritiescmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/similarities"
	versioncmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/version"
)

const qpvLongDesc string = `qpv finds and reviews duplicate patterns in a quilting pattern library.

Run the server:
  qpv serve                       Run the API server (and /mcp when enabled)

Maintain the similarity index:
  qpv embeddings generate         Embed thumbnails of new patterns
  qpv similarities compute        Rebuild the pairwise similarity index
  qpv similarities status         Show the last index build

Review duplicates against a running server:
  qpv duplicates list             List candidate duplicate pairs
  qpv duplicates verify <a> <b>   Ask the vision model to compare two patterns
  qpv search <query>              Semantic search over the library`

const qpvShortDesc string = "qpv - quilting pattern duplicate review"

func NewQPVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "qpv",
		Short:         qpvShortDesc,
		Long:          qpvLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .qpv/ config directory")

	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(duplicatescmder.NewDuplicatesCmd())
	cmd.AddCommand(embeddingscmder.NewEmbeddingsCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(similaritiescmder.NewSimilaritiesCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
