// Package main provides the CI module for Tribunal: tests against a
// throwaway Postgres, multi-arch images and a local runner.
package main

import (
	"context"
	"dagger/tribunal/internal/dagger"
	"fmt"
	"strings"
)

const (
	goImage       = "golang:1.24.2-alpine"
	runtimeImage  = "gcr.io/distroless/static-debian12:latest"
	postgresImage = "postgres:17-alpine"
	apiPort       = 8080
)

// binaries lists the commands shipped in the image.
var binaries = []string{"api", "db", "token"}

type Tribunal struct{}

// toolchain returns a Go container with module and build caches mounted.
func toolchain(src *dagger.Directory) *dagger.Container {
	return dag.Container().
		From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("tribunal-go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("tribunal-go-build")).
		WithDirectory("/src", src, dagger.ContainerWithDirectoryOpts{
			Exclude: []string{"dagger/", "logs/", "bin/"},
		}).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")
}

// postgres starts a disposable database for integration runs.
func postgres() *dagger.Service {
	return dag.Container().
		From(postgresImage).
		WithEnvVariable("POSTGRES_USER", "tribunal").
		WithEnvVariable("POSTGRES_PASSWORD", "tribunal").
		WithEnvVariable("POSTGRES_DB", "tribunal").
		WithExposedPort(5432).
		AsService()
}

// Test runs the unit tests, then applies the migrations to a Postgres
// instance bound as "db".
func (m *Tribunal) Test(
	ctx context.Context,
	// +required
	src *dagger.Directory,
	// Package pattern to test
	// +optional
	// +default="./..."
	pkg string,
) (string, error) {
	if pkg == "" {
		pkg = "./..."
	}

	return toolchain(src).
		WithExec([]string{"go", "test", "-count=1", pkg}).
		WithServiceBinding("db", postgres()).
		WithEnvVariable("TRIBUNAL_DATABASE_DRIVER", "postgres").
		WithEnvVariable("TRIBUNAL_DATABASE_HOST", "db").
		WithEnvVariable("TRIBUNAL_DATABASE_PORT", "5432").
		WithEnvVariable("TRIBUNAL_DATABASE_USER", "tribunal").
		WithEnvVariable("TRIBUNAL_DATABASE_PASSWORD", "tribunal").
		WithEnvVariable("TRIBUNAL_DATABASE_NAME", "tribunal").
		WithExec([]string{"go", "run", "./cmd/db", "init"}).
		WithExec([]string{"go", "run", "./cmd/db", "migrate"}).
		Stdout(ctx)
}

// BuildContainer compiles every command and packages them on distroless.
func (m *Tribunal) BuildContainer(
	ctx context.Context,
	// +required
	src *dagger.Directory,
	// +optional
	// +default="linux/amd64"
	platform *dagger.Platform,
	// Version stamped into the binaries
	// +optional
	// +default="dev"
	version string,
) (*dagger.Container, error) {
	target := dagger.Platform("linux/amd64")
	if platform != nil {
		target = *platform
	}
	if version == "" {
		version = "dev"
	}

	arch, err := dag.Containerd().ArchitectureOf(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve architecture for %s: %w", target, err)
	}

	builder := toolchain(src).
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("GOARCH", arch).
		WithExec([]string{"apk", "add", "--no-cache", "upx", "ca-certificates"})

	ldflags := "-s -w -X github.com/robalyx/tribunal/internal/setup.Version=" + version
	for _, name := range binaries {
		out := "/out/bin/" + name
		builder = builder.
			WithExec([]string{"go", "build", "-trimpath", "-ldflags=" + ldflags, "-o", out, "./cmd/" + name}).
			WithExec([]string{"upx", "--best", "--lzma", out})
	}

	return dag.Container(dagger.ContainerOpts{Platform: target}).
		From(runtimeImage).
		WithDirectory("/app/bin", builder.Directory("/out/bin")).
		WithDirectory("/app/config", src.Directory("config")).
		WithFile("/etc/ssl/certs/ca-certificates.crt", builder.File("/etc/ssl/certs/ca-certificates.crt")).
		WithWorkdir("/app").
		WithExposedPort(apiPort).
		WithEntrypoint([]string{"/app/bin/api"}).
		WithDefaultArgs([]string{"--migrate"}), nil
}

// Publish pushes a multi-arch image and returns its reference.
func (m *Tribunal) Publish(
	ctx context.Context,
	// +required
	src *dagger.Directory,
	// Image reference, e.g. "ghcr.io/robalyx/tribunal:latest"
	// +required
	imageName string,
	// Comma-separated platforms
	// +optional
	// +default="linux/amd64"
	platforms string,
	// +optional
	// +default="dev"
	version string,
) (string, error) {
	var variants []*dagger.Container
	for _, p := range strings.Split(platforms, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		platform := dagger.Platform(p)
		ctr, err := m.BuildContainer(ctx, src, &platform, version)
		if err != nil {
			return "", err
		}
		variants = append(variants, ctr)
	}
	if len(variants) == 0 {
		return "", fmt.Errorf("no platforms given in %q", platforms)
	}

	ref, err := dag.Container().Publish(ctx, imageName, dagger.ContainerPublishOpts{
		PlatformVariants: variants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", imageName, err)
	}
	return ref, nil
}

// Run executes one of the commands with the given config directory mounted.
func (m *Tribunal) Run(
	// +required
	src *dagger.Directory,
	// +required
	configDir *dagger.Directory,
	// Command to run: "api", "db" or "token"
	// +required
	cmd string,
	// +optional
	args []string,
) *dagger.Container {
	return toolchain(src).
		WithDirectory("/etc/tribunal/config", configDir).
		WithExec([]string{"go", "build", "-o", "/usr/local/bin/" + cmd, "./cmd/" + cmd}).
		WithExec(append([]string{cmd}, args...))
}
