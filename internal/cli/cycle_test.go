package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jakenelson/forkbuild/internal/config"
	"github.com/jakenelson/forkbuild/internal/container"
	"github.com/jakenelson/forkbuild/internal/project"
)

type fakeBackend struct {
	builds       []container.BuildOptions
	buildErr     error
	removed      []string
	removeErr    error
	existsChecks []string
	existsErr    error
	// lingering reports the tag as still present after removal
	lingering bool
	closed    bool

	// recorded at Build time, before any cleanup runs
	contextHadDockerfile bool
}

func (f *fakeBackend) Build(ctx context.Context, opts container.BuildOptions) error {
	f.builds = append(f.builds, opts)
	if _, err := os.Stat(filepath.Join(opts.ContextDir, "Dockerfile")); err == nil {
		f.contextHadDockerfile = true
	}
	return f.buildErr
}

func (f *fakeBackend) RemoveImage(ctx context.Context, tag string) error {
	f.removed = append(f.removed, tag)
	return f.removeErr
}

func (f *fakeBackend) ImageExists(ctx context.Context, tag string) (bool, error) {
	f.existsChecks = append(f.existsChecks, tag)
	return f.lingering, f.existsErr
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

// useBackend swaps the backend hook for the duration of a test.
func useBackend(t *testing.T, f *fakeBackend) {
	t.Helper()
	prev := newBackend
	newBackend = func() (imageBackend, error) { return f, nil }
	t.Cleanup(func() { newBackend = prev })
}

func projectWithDockerfile(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Dockerfile"), []byte("FROM scratch\n"), 0644); err != nil {
		t.Fatalf("failed to write Dockerfile: %v", err)
	}
	return root
}

func TestBuildCycleSuccess(t *testing.T) {
	backend := &fakeBackend{}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	if err := runBuildCycle(context.Background(), cfg); err != nil {
		t.Fatalf("runBuildCycle() error: %v", err)
	}

	if len(backend.builds) != 1 {
		t.Fatalf("expected exactly 1 build invocation, got %d", len(backend.builds))
	}

	opts := backend.builds[0]
	if opts.Tag != "github-different-repository-image:0.0.1" {
		t.Errorf("build tag = %q, want the fixed demonstration tag", opts.Tag)
	}
	if !opts.Pull {
		t.Error("build should request pulling the base image")
	}
	if len(opts.BuildArgs) != 4 {
		t.Errorf("expected exactly 4 build args, got %d", len(opts.BuildArgs))
	}
	for _, key := range []string{
		config.ArgInstallationMethod,
		config.ArgConstraintsReference,
		config.ArgConstraintsRepository,
		config.ArgBaseImage,
	} {
		if _, ok := opts.BuildArgs[key]; !ok {
			t.Errorf("build args missing %q", key)
		}
	}

	if !backend.contextHadDockerfile {
		t.Error("build context should contain the staged Dockerfile")
	}

	if len(backend.removed) != 1 || backend.removed[0] != opts.Tag {
		t.Errorf("expected removal of %q, got %v", opts.Tag, backend.removed)
	}

	if len(backend.existsChecks) != 1 || backend.existsChecks[0] != opts.Tag {
		t.Errorf("expected removal of %q to be verified, got %v", opts.Tag, backend.existsChecks)
	}

	if !backend.closed {
		t.Error("backend should be closed after the cycle")
	}

	if _, err := os.Stat(opts.ContextDir); !os.IsNotExist(err) {
		t.Errorf("scratch directory %s should not survive the cycle", opts.ContextDir)
	}
}

func TestBuildCycleBuildFailureStillCleansUp(t *testing.T) {
	backend := &fakeBackend{buildErr: errors.New("daemon unreachable")}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	err := runBuildCycle(context.Background(), cfg)
	if !errors.Is(err, backend.buildErr) {
		t.Fatalf("runBuildCycle() error = %v, want the build error", err)
	}

	// The fixed tag must not linger after a failed build
	if len(backend.removed) != 1 {
		t.Errorf("expected image removal after a failed build, got %v", backend.removed)
	}

	if len(backend.builds) == 1 {
		if _, statErr := os.Stat(backend.builds[0].ContextDir); !os.IsNotExist(statErr) {
			t.Error("scratch directory should be deleted after a failed build")
		}
	}
}

func TestBuildCycleMissingDockerfile(t *testing.T) {
	backend := &fakeBackend{}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = t.TempDir()

	err := runBuildCycle(context.Background(), cfg)
	if !errors.Is(err, project.ErrNoDockerfile) {
		t.Fatalf("runBuildCycle() error = %v, want ErrNoDockerfile", err)
	}

	if len(backend.builds) != 0 {
		t.Error("no build may be attempted when the Dockerfile is absent")
	}
	if len(backend.removed) != 0 {
		t.Error("no removal may be attempted when the Dockerfile is absent")
	}
}

func TestBuildCycleRemoveFailure(t *testing.T) {
	backend := &fakeBackend{removeErr: errors.New("image is in use")}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	err := runBuildCycle(context.Background(), cfg)
	if !errors.Is(err, backend.removeErr) {
		t.Fatalf("runBuildCycle() error = %v, want the removal error", err)
	}

	// Removal failure must not block release of the scratch directory
	if len(backend.builds) == 1 {
		if _, statErr := os.Stat(backend.builds[0].ContextDir); !os.IsNotExist(statErr) {
			t.Error("scratch directory should be deleted even when removal fails")
		}
	}
}

func TestBuildCycleLingeringImageReported(t *testing.T) {
	backend := &fakeBackend{lingering: true}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	err := runBuildCycle(context.Background(), cfg)
	if err == nil {
		t.Fatal("runBuildCycle() should fail when the tag survives removal")
	}
	if !strings.Contains(err.Error(), "still present") {
		t.Errorf("runBuildCycle() error = %v, want a lingering-image report", err)
	}

	// The scratch directory is still released
	if len(backend.builds) == 1 {
		if _, statErr := os.Stat(backend.builds[0].ContextDir); !os.IsNotExist(statErr) {
			t.Error("scratch directory should be deleted when the image lingers")
		}
	}
}

func TestBuildCycleExistsCheckFailure(t *testing.T) {
	backend := &fakeBackend{existsErr: errors.New("daemon went away")}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	err := runBuildCycle(context.Background(), cfg)
	if !errors.Is(err, backend.existsErr) {
		t.Fatalf("runBuildCycle() error = %v, want the verification error", err)
	}
}

func TestBuildCycleBuildAndRemoveFailure(t *testing.T) {
	backend := &fakeBackend{
		buildErr:  errors.New("daemon unreachable"),
		removeErr: errors.New("image is in use"),
	}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	// The build failure is the run's error; the removal failure is only a
	// warning and must not mask it.
	err := runBuildCycle(context.Background(), cfg)
	if !errors.Is(err, backend.buildErr) {
		t.Fatalf("runBuildCycle() error = %v, want the build error", err)
	}
	if len(backend.removed) != 1 {
		t.Errorf("expected an image removal attempt, got %v", backend.removed)
	}
}

func TestBuildCycleKeepImage(t *testing.T) {
	backend := &fakeBackend{}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)
	cfg.Build.KeepImage = true

	if err := runBuildCycle(context.Background(), cfg); err != nil {
		t.Fatalf("runBuildCycle() error: %v", err)
	}

	if len(backend.removed) != 0 {
		t.Errorf("keep-image run must not remove the image, got %v", backend.removed)
	}
	if len(backend.existsChecks) != 0 {
		t.Errorf("keep-image run must not verify removal, got %v", backend.existsChecks)
	}
}

func TestBuildCycleSerialRunsAreIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	useBackend(t, backend)

	cfg := config.DefaultConfig()
	cfg.Project.Root = projectWithDockerfile(t)

	for i := 0; i < 2; i++ {
		if err := runBuildCycle(context.Background(), cfg); err != nil {
			t.Fatalf("run %d: runBuildCycle() error: %v", i, err)
		}
	}

	if len(backend.builds) != 2 || len(backend.removed) != 2 {
		t.Errorf("expected 2 builds and 2 removals, got %d and %d",
			len(backend.builds), len(backend.removed))
	}
	for _, opts := range backend.builds {
		if _, err := os.Stat(opts.ContextDir); !os.IsNotExist(err) {
			t.Errorf("scratch directory %s left behind", opts.ContextDir)
		}
	}
}
