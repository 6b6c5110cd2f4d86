package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pistonite/magoo/internal/branding"
	"github.com/Pistonite/magoo/internal/config"
	"github.com/Pistonite/magoo/internal/gitcmd"
	"github.com/Pistonite/magoo/internal/logging"
	"github.com/Pistonite/magoo/internal/ops"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	rootDir       string
	rootVerbose   bool
	rootQuiet     bool
	rootFormat    string
	rootNoRecurse bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: `Magoo manages the git submodules of a repository the way a package manager
manages dependencies: install, update, and remove them without driving the
git submodule plumbing by hand. It reconciles the .gitmodules manifest, the
local git config, and the working tree into one consistent state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(rootVerbose, rootQuiet)
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", ".", "Working directory, for running against a repository elsewhere")
	rootCmd.PersistentFlags().BoolVar(&rootVerbose, "verbose", false, "Show every git command executed")
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "q", false, "Only show errors")
	rootCmd.PersistentFlags().StringVar(&rootFormat, "format", "text", "Report format: text, yaml, or json")
	rootCmd.PersistentFlags().BoolVar(&rootNoRecurse, "no-recurse", false, "Do not recurse into nested submodules")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

// newEnv opens the repository under --dir and assembles the operation
// environment from config defaults.
func newEnv(ctx context.Context) (*ops.Env, error) {
	runner, err := gitcmd.NewExecRunner(config.GitBin())
	if err != nil {
		return nil, err
	}
	repo, err := gitcmd.Open(ctx, runner, rootDir)
	if err != nil {
		return nil, err
	}
	return &ops.Env{
		Repo:        repo,
		LockTimeout: config.LockTimeout(),
		Depth:       config.CloneDepth(),
		NoRecurse:   rootNoRecurse,
	}, nil
}
