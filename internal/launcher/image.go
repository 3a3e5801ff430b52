package launcher

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/creack/pty"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/term"

	"github.com/taskmatrix/tmx/internal/logger"
)

// BuildOptions describes an image build.
type BuildOptions struct {
	// ContextDir is the build context directory containing the Dockerfile.
	ContextDir string

	// Tag is the tag applied to the built image.
	Tag string

	// NoCache disables the build cache.
	NoCache bool
}

// BuildImage builds the application image from a local context directory.
//
// The directory is packed into a tar archive and submitted to the Engine
// build API. Daemon output is streamed to stderr as it arrives. A build
// failure (including network fetches inside the recipe) aborts with the
// daemon's error; there is no retry.
//
// Returns:
//   - nil on a successful build
//   - Error if the context cannot be packed or the build fails
func (l *Launcher) BuildImage(ctx context.Context, opts BuildOptions) error {
	logger.Info("Building image %s from %s", opts.Tag, opts.ContextDir)

	buildCtx, err := packBuildContext(opts.ContextDir)
	if err != nil {
		return fmt.Errorf("failed to pack build context: %w", err)
	}

	resp, err := l.client.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{opts.Tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
		NoCache:    opts.NoCache,
	})
	if err != nil {
		return fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	fd, isTerm := term.GetFdInfo(os.Stderr)
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, os.Stderr, fd, isTerm, nil); err != nil {
		return fmt.Errorf("image build failed: %w", err)
	}

	logger.Info("Image built successfully: %s", opts.Tag)
	return nil
}

// ImageExists reports whether an image with the given reference is present
// in the local image cache.
func (l *Launcher) ImageExists(ctx context.Context, ref string) (bool, error) {
	if ref == "" {
		return false, fmt.Errorf("image reference cannot be empty")
	}

	images, err := l.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list images: %w", err)
	}
	return len(images) > 0, nil
}

// EnsureImage checks for the image locally and pulls it when missing.
//
// Pulling goes through the docker CLI under a PTY so the daemon's native
// progress rendering reaches the user unmangled.
func (l *Launcher) EnsureImage(ctx context.Context, ref string) error {
	exists, err := l.ImageExists(ctx, ref)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Image %s found locally", ref)
		return nil
	}

	logger.Info("Image %s not found locally, pulling...", ref)
	return pullImageCLI(ctx, ref)
}

// pullImageCLI pulls an image via the docker CLI with a PTY attached,
// streaming progress output to stderr.
func pullImageCLI(ctx context.Context, ref string) error {
	cmd := exec.CommandContext(ctx, "docker", "pull", ref)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start docker pull: %w", err)
	}
	defer ptmx.Close()

	// The PTY returns EIO once the child exits; cmd.Wait decides success.
	io.Copy(os.Stderr, ptmx)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("pull cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}

	logger.Info("Pulled image: %s", ref)
	return nil
}

// packBuildContext produces a tar archive of the build context directory.
//
// Paths inside the archive are relative to the context root. Only regular
// files and directories are included; file modes are preserved.
func packBuildContext(dir string) (io.Reader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("build context %s is not a directory", dir)
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err = filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if !fi.Mode().IsRegular() && !fi.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	return &buf, nil
}
