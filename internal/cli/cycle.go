package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/jakenelson/forkbuild/internal/config"
	"github.com/jakenelson/forkbuild/internal/container"
	"github.com/jakenelson/forkbuild/internal/project"
	"github.com/jakenelson/forkbuild/internal/stage"
	"github.com/spf13/cobra"
)

// imageBackend is the slice of the container runner the cycle needs.
type imageBackend interface {
	Build(ctx context.Context, opts container.BuildOptions) error
	RemoveImage(ctx context.Context, tag string) error
	ImageExists(ctx context.Context, tag string) (bool, error)
	Close() error
}

// newBackend is a hook so tests can run the cycle without a daemon.
var newBackend = func() (imageBackend, error) {
	return container.NewRunner()
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	return runBuildCycle(ctx, cfg)
}

// runBuildCycle performs the full build-and-discard cycle. The scratch
// directory and the backend connection are released on every exit path,
// including build failure and interrupt.
func runBuildCycle(ctx context.Context, cfg *config.Config) error {
	root, err := resolveRoot(cfg)
	if err != nil {
		return err
	}

	st, err := stage.New(root)
	if err != nil {
		return err
	}

	backend, err := newBackend()
	if err != nil {
		st.Close()
		return fmt.Errorf("failed to create image backend: %w", err)
	}

	err = buildAndDiscard(ctx, backend, st, cfg)

	if cerr := backend.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := st.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func buildAndDiscard(ctx context.Context, backend imageBackend, st *stage.Stage, cfg *config.Config) error {
	start := time.Now()
	fmt.Printf("Staged %s (%s) in %s\n", config.DockerfileName,
		units.HumanSize(float64(st.DockerfileSize)), st.Dir)
	fmt.Printf("Building %s from %s...\n", cfg.Build.Tag, cfg.Build.Args[config.ArgConstraintsRepository])

	buildErr := backend.Build(ctx, container.BuildOptions{
		ContextDir: st.Dir,
		Tag:        cfg.Build.Tag,
		Pull:       cfg.Build.Pull,
		NoCache:    cfg.Build.NoCache,
		BuildKit:   cfg.Build.BuildKit,
		BuildArgs:  cfg.Build.Args,
	})

	if cfg.Build.KeepImage {
		if buildErr == nil {
			fmt.Printf("Keeping image %s\n", cfg.Build.Tag)
		}
		return buildErr
	}

	// The tag is removed even after a failed build so a rerun starts clean.
	// Removal runs on a fresh context so an interrupted build still
	// releases the tag.
	if err := backend.RemoveImage(context.Background(), cfg.Build.Tag); err != nil {
		if buildErr != nil {
			fmt.Fprintln(os.Stderr, "Warning: image not cleaned up after failed build:", err)
			return buildErr
		}
		return err
	}

	// The fixed tag must not survive the cycle; a lingering image is a
	// cleanup failure in its own right.
	if err := verifyImageGone(backend, cfg.Build.Tag); err != nil {
		if buildErr != nil {
			fmt.Fprintln(os.Stderr, "Warning:", err)
			return buildErr
		}
		return err
	}

	if buildErr != nil {
		return buildErr
	}

	fmt.Printf("Removed image %s\n", cfg.Build.Tag)
	fmt.Printf("Cycle completed in %s\n", units.HumanDuration(time.Since(start)))
	return nil
}

func verifyImageGone(backend imageBackend, tag string) error {
	exists, err := backend.ImageExists(context.Background(), tag)
	if err != nil {
		return fmt.Errorf("failed to verify image removal: %w", err)
	}
	if exists {
		return fmt.Errorf("image %s still present after removal", tag)
	}
	return nil
}

func resolveRoot(cfg *config.Config) (string, error) {
	if cfg.Project.Root != "" {
		return project.Verify(cfg.Project.Root)
	}
	return project.Resolve()
}
