package cli

import (
	"github.com/spf13/cobra"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pangenomerge.

To load completions:

Bash:
  $ source <(pangenomerge completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pangenomerge completion bash > /etc/bash_completion.d/pangenomerge
  # macOS:
  $ pangenomerge completion bash > $(brew --prefix)/etc/bash_completion.d/pangenomerge

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pangenomerge completion zsh > "${fpath[1]}/_pangenomerge"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pangenomerge completion fish | source

  # To load completions for each session, execute once:
  $ pangenomerge completion fish > ~/.config/fish/completions/pangenomerge.fish

PowerShell:
  PS> pangenomerge completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pangenomerge completion powershell > pangenomerge.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}
