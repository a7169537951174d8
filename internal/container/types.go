package container

// BuildOptions configures the single demonstration image build
type BuildOptions struct {
	// ContextDir is the scratch directory holding the staged Dockerfile.
	ContextDir string
	Tag        string
	// Pull forces re-pulling the base image before building.
	Pull    bool
	NoCache bool
	// BuildKit selects the enhanced build engine on the daemon.
	BuildKit  bool
	BuildArgs map[string]string
}
