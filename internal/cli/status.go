package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Pistonite/magoo/internal/config"
	"github.com/Pistonite/magoo/internal/gitcmd"
	"github.com/Pistonite/magoo/internal/ops"
)

var (
	statusAll   bool
	statusFix   bool
	statusForce bool
	statusGit   bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every submodule",
	Long: `Status merges the .gitmodules manifest, the local git config, and the
working tree into one view and classifies each submodule. With --fix it also
repairs what it safely can: cloning missing submodules and cleaning up
orphaned residue. Fixes never move an existing checkout and never discard
uncommitted work unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusGit {
			runner, err := gitcmd.NewExecRunner(config.GitBin())
			if err != nil {
				return err
			}
			return printGitVersionInfo(cmd.Context(), os.Stdout, runner)
		}
		env, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		report, err := ops.Status(cmd.Context(), env, ops.StatusOptions{
			All:   statusAll,
			Fix:   statusFix,
			Force: statusForce,
		})
		if err != nil {
			return err
		}
		return finishReport(os.Stdout, report)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "Also scan for residue with no manifest or config entry")
	statusCmd.Flags().BoolVar(&statusFix, "fix", false, "Repair inconsistencies that can be fixed safely")
	statusCmd.Flags().BoolVar(&statusForce, "force", false, "With --fix, allow discarding uncommitted changes")
	statusCmd.Flags().BoolVar(&statusGit, "git", false, "Show the current git version and whether it is supported")
	rootCmd.AddCommand(statusCmd)
}

// printGitVersionInfo reports the installed git version against the
// officially supported range. Informational only; an unsupported or even
// unparseable version is never refused.
func printGitVersionInfo(ctx context.Context, w io.Writer, runner gitcmd.Runner) error {
	fmt.Fprintf(w, "The officially supported git versions are: %s\n", gitcmd.SupportedGitVersions)
	res, err := runner.Run(ctx, "", "--version")
	if err != nil {
		return err
	}
	if err := res.Err("--version"); err != nil {
		return err
	}
	raw := strings.TrimPrefix(res.FirstLine(), "git version ")
	v, err := gitcmd.ParseVersion(res.FirstLine())
	if err != nil {
		// some distributions decorate the output; report it verbatim
		fmt.Fprintf(w, "Your git version is: %s (unrecognized)\n", raw)
		return nil
	}
	fmt.Fprintf(w, "Your git version is: %s (supported: %v)\n", v, gitcmd.Supported(v))
	return nil
}
