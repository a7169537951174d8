package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jakenelson/forkbuild/internal/config"
)

// The binary is expected to live at <root>/scripts/forkbuild, so the project
// root is a fixed number of parents above the binary's own directory.
const parentsToRoot = 2

// ErrNoDockerfile indicates the resolved root does not contain a Dockerfile.
var ErrNoDockerfile = errors.New("project root has no Dockerfile")

// Resolve derives the project root from the running binary's location.
func Resolve() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}

	// Resolve symlinks so an installed link still points back into the tree
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}

	return RootFrom(filepath.Dir(resolved))
}

// RootFrom ascends the fixed number of parent directories from the given
// directory and verifies the result is a usable project root.
func RootFrom(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}

	for i := 0; i < parentsToRoot; i++ {
		root = filepath.Dir(root)
	}

	return Verify(root)
}

// Verify checks that root is an absolute, existing directory containing a
// readable Dockerfile. It returns the cleaned root path.
func Verify(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}

	info, err := os.Stat(Dockerfile(abs))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNoDockerfile, abs)
		}
		return "", fmt.Errorf("failed to read Dockerfile in %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNoDockerfile, Dockerfile(abs))
	}

	return abs, nil
}

// Dockerfile returns the path of the project's Dockerfile under root.
func Dockerfile(root string) string {
	return filepath.Join(root, config.DockerfileName)
}
