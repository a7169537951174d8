package config

import (
	"github.com/spf13/viper"
)

// Config represents the full configuration structure
type Config struct {
	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	Build   BuildConfig   `mapstructure:"build" yaml:"build"`
}

// ProjectConfig configures where the project root is found
type ProjectConfig struct {
	// Root overrides automatic resolution relative to the binary.
	Root string `mapstructure:"root" yaml:"root"`
}

// BuildConfig configures the single demonstration build
type BuildConfig struct {
	Tag       string            `mapstructure:"tag" yaml:"tag"`
	Pull      bool              `mapstructure:"pull" yaml:"pull"`
	BuildKit  bool              `mapstructure:"buildkit" yaml:"buildkit"`
	NoCache   bool              `mapstructure:"no_cache" yaml:"no_cache"`
	KeepImage bool              `mapstructure:"keep_image" yaml:"keep_image"`
	Args      map[string]string `mapstructure:"args" yaml:"args"`
}

// LoadConfig loads configuration from viper with defaults
func LoadConfig() *Config {
	setDefaults()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		// Return defaults on error
		return DefaultConfig()
	}

	// An args override replaces individual keys, never the whole set; the
	// Dockerfile needs all four substitutions present.
	args := DefaultBuildArgs()
	for k, v := range cfg.Build.Args {
		args[k] = v
	}
	cfg.Build.Args = args

	return cfg
}

func setDefaults() {
	// Project defaults
	viper.SetDefault("project.root", "")

	// Build defaults
	viper.SetDefault("build.tag", DefaultImageTag)
	viper.SetDefault("build.pull", true)
	viper.SetDefault("build.buildkit", true)
	viper.SetDefault("build.no_cache", false)
	viper.SetDefault("build.keep_image", false)
	viper.SetDefault("build.args", map[string]string{})
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Root: "",
		},
		Build: BuildConfig{
			Tag:       DefaultImageTag,
			Pull:      true,
			BuildKit:  true,
			NoCache:   false,
			KeepImage: false,
			Args:      DefaultBuildArgs(),
		},
	}
}
