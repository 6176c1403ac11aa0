package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// completionGenerators maps a shell name to its cobra generator.
var completionGenerators = map[string]func(root *cobra.Command, out io.Writer) error{
	"bash": func(root *cobra.Command, out io.Writer) error { return root.GenBashCompletionV2(out, true) },
	"zsh":  func(root *cobra.Command, out io.Writer) error { return root.GenZshCompletion(out) },
	"fish": func(root *cobra.Command, out io.Writer) error { return root.GenFishCompletion(out, true) },
	"powershell": func(root *cobra.Command, out io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(out)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for vhnotify.

Bash:
  $ source <(vhnotify completion bash)
  $ vhnotify completion bash > /etc/bash_completion.d/vhnotify

Zsh:
  $ vhnotify completion zsh > "${fpath[1]}/_vhnotify"

Fish:
  $ vhnotify completion fish > ~/.config/fish/completions/vhnotify.fish

PowerShell:
  PS> vhnotify completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, ok := completionGenerators[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
		return gen(cmd.Root(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
