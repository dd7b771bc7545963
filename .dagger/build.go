package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/qpv/internal/dagger"
)

// Build and return directory of qpv binaries for linux.
func (q *QPV) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// cgo rules out cross compiling, so each target builds in a native container
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	outputs := dag.Directory()

	for _, platform := range platforms {
		path := string(platform) + "/"

		build := q.goContainer(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path + "qpv", "./cli/qpv"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (q *QPV) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	const pkg = "github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X '%s.Version=%s'", pkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", pkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", pkg, buildtime),
	}

	return q.Build(ctx, strings.Join(ldflags, " "))
}
