package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(completionCmd)
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate a shell completion script",
	Long: `Generate a shell completion script for forkbuild and print it to stdout.

To try completions in the current bash session:

  source <(forkbuild completion bash)

To install them permanently, redirect the output into your shell's
completion directory:

  # bash (Linux)
  forkbuild completion bash > /etc/bash_completion.d/forkbuild

  # zsh (compinit must be enabled)
  forkbuild completion zsh > "${fpath[1]}/_forkbuild"

  # fish
  forkbuild completion fish > ~/.config/fish/completions/forkbuild.fish

  # PowerShell (source the file from your profile)
  forkbuild completion powershell > forkbuild.ps1
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
