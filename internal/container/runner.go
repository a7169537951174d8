package container

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/term"
)

// Runner manages Docker image operations
type Runner struct {
	client *client.Client
}

// NewRunner creates a new image runner
func NewRunner() (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Verify connection
	if _, err := cli.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Docker: %w", err)
	}

	return &Runner{client: cli}, nil
}

// Close closes the Docker client
func (r *Runner) Close() error {
	return r.client.Close()
}

// Build builds an image from the staged build context
func (r *Runner) Build(ctx context.Context, opts BuildOptions) error {
	buf, err := buildContextTar(opts.ContextDir)
	if err != nil {
		return err
	}

	buildOptions := types.ImageBuildOptions{
		Dockerfile: "Dockerfile",
		Tags:       []string{opts.Tag},
		NoCache:    opts.NoCache,
		PullParent: opts.Pull,
		Remove:     true,
		BuildArgs:  buildArgPointers(opts.BuildArgs),
		Version:    types.BuilderV1,
	}
	if opts.BuildKit {
		buildOptions.Version = types.BuilderBuildKit
	}

	resp, err := r.client.ImageBuild(ctx, buf, buildOptions)
	if err != nil {
		return fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	// The daemon reports failures inside the message stream, not as an
	// HTTP-level error; surface those as a build failure.
	termFd, isTerm := term.GetFdInfo(os.Stdout)
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, os.Stdout, termFd, isTerm, nil); err != nil {
		if jsonErr, ok := err.(*jsonmessage.JSONError); ok {
			return fmt.Errorf("build failed: %s", jsonErr.Message)
		}
		return fmt.Errorf("error reading build output: %w", err)
	}

	return nil
}

// RemoveImage force-removes the image with the given tag. A tag that does
// not exist is treated as already removed.
func (r *Runner) RemoveImage(ctx context.Context, tag string) error {
	_, err := r.client.ImageRemove(ctx, tag, image.RemoveOptions{
		Force:         true,
		PruneChildren: true,
	})
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("failed to remove image %q: %w", tag, err)
	}
	return nil
}

// ImageExists checks if an image exists locally
func (r *Runner) ImageExists(ctx context.Context, tag string) (bool, error) {
	_, _, err := r.client.ImageInspectWithRaw(ctx, tag)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// buildContextTar archives the scratch context directory for the daemon.
func buildContextTar(contextDir string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)

	if err := filepath.Walk(contextDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(contextDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if !info.IsDir() {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if _, err := tw.Write(content); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to create build context: %w", err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close build context: %w", err)
	}

	return buf, nil
}

// buildArgPointers converts build args to the form the Engine API expects.
func buildArgPointers(args map[string]string) map[string]*string {
	out := make(map[string]*string, len(args))
	for k, v := range args {
		out[k] = &v
	}
	return out
}
