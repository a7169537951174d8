package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jakenelson/forkbuild/internal/config"
	"github.com/jakenelson/forkbuild/internal/project"
)

// Stage is a scratch build context holding a copy of the project Dockerfile.
// It must not outlive the process: callers own a Close obligation.
type Stage struct {
	// Dir is the scratch directory used as the build context.
	Dir string
	// DockerfileSize is the size in bytes of the staged Dockerfile.
	DockerfileSize int64
}

// New creates a uniquely named scratch directory and copies the project's
// Dockerfile into it byte for byte. On any failure nothing is left behind.
func New(projectRoot string) (*Stage, error) {
	dir, err := os.MkdirTemp("", "forkbuild-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	size, err := copyFile(project.Dockerfile(projectRoot), filepath.Join(dir, config.DockerfileName))
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to stage Dockerfile: %w", err)
	}

	return &Stage{Dir: dir, DockerfileSize: size}, nil
}

// Dockerfile returns the path of the staged Dockerfile.
func (s *Stage) Dockerfile() string {
	return filepath.Join(s.Dir, config.DockerfileName)
}

// Close recursively deletes the scratch directory.
func (s *Stage) Close() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", s.Dir, err)
	}
	return nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	return n, nil
}
