package cli

import (
	"fmt"
	"os"

	"github.com/jakenelson/forkbuild/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "forkbuild",
	Short: "Build and discard a demonstration container image",
	Long: `Forkbuild demonstrates building the project image from an alternate
GitHub repository, with the constraints reference and constraints repository
overridden to match. It is an example, not a production build tool.

Running forkbuild with no arguments performs one complete cycle:
resolve the project root, stage the Dockerfile into a scratch directory,
build the image with the fixed tag and build arguments, then remove the
image and delete the scratch directory.

Examples:
  forkbuild                         # Run the full build-and-discard cycle
  forkbuild --keep-image            # Build but keep the image for inspection
  forkbuild --project-root ~/src/x  # Build another checkout's Dockerfile`,
	RunE:         runCycle,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/forkbuild/config.yaml)")

	// Cycle flags
	rootCmd.Flags().String("project-root", "", "project root containing the Dockerfile (default: resolved from the binary location)")
	rootCmd.Flags().Bool("keep-image", false, "do not remove the built image")
	rootCmd.Flags().Bool("no-cache", false, "do not use cache when building")

	// Bind flags to viper for config integration
	viper.BindPFlag("project.root", rootCmd.Flags().Lookup("project-root"))
	viper.BindPFlag("build.keep_image", rootCmd.Flags().Lookup("keep-image"))
	viper.BindPFlag("build.no_cache", rootCmd.Flags().Lookup("no-cache"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Warning: could not find home directory:", err)
			return
		}

		// Search for config in standard locations
		viper.AddConfigPath(home + "/.config/forkbuild")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("FORKBUILD")
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Warning: error reading config file:", err)
		}
	}

	// Load into config struct
	cfg = config.LoadConfig()
}
