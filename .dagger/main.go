// qpv CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/qpv/internal/dagger"
)

// QPV is the CI module for the quilting pattern viewer backend.
type QPV struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new QPV CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *QPV {
	return &QPV{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted. The sqlite
// pattern store links sqlite-vec through cgo.
func (q *QPV) goContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithWorkdir("/src").
		WithDirectory("/src", q.Source)
}

// postgres returns a pgvector service for the PostgreSQL driver tests.
func (q *QPV) postgres() *dagger.Service {
	return dag.Container().
		From("pgvector/pgvector:pg17").
		WithEnvVariable("POSTGRES_USER", "qpv").
		WithEnvVariable("POSTGRES_PASSWORD", "qpv").
		WithEnvVariable("POSTGRES_DB", "qpv_test").
		WithExposedPort(5432).
		AsService()
}

// Test runs the unit tests via "go test", with the PostgreSQL driver tests
// pointed at a throwaway pgvector service.
func (q *QPV) Test(ctx context.Context) (string, error) {
	return q.goContainer("").
		WithServiceBinding("db", q.postgres()).
		WithEnvVariable("QPV_TEST_POSTGRES_DSN", "postgres://qpv:qpv@db:5432/qpv_test?sslmode=disable").
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
