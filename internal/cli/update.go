package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Pistonite/magoo/internal/ops"
)

var (
	updateBranch string
	updateURL    string
	updateForce  bool
)

var updateCmd = &cobra.Command{
	Use:   "update [NAME]",
	Short: "Fetch submodules and move them to their upstream tips",
	Long: `Update fetches each submodule's tracked branch and checks out the new tip,
recording it in the superproject index. With NAME, only that submodule is
updated, and --branch or --url retarget its manifest entry first. The
retargeting persists even when the subsequent fetch fails, so a rerun picks
up where the failure left off.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		opts := ops.UpdateOptions{
			Branch: updateBranch,
			URL:    updateURL,
			Force:  updateForce,
		}
		if len(args) > 0 {
			opts.Name = args[0]
		}
		report, err := ops.Update(cmd.Context(), env, opts)
		if err != nil {
			return err
		}
		return finishReport(os.Stdout, report)
	},
}

func init() {
	updateCmd.Flags().StringVarP(&updateBranch, "branch", "b", "", "Change the tracked branch before updating (HEAD resets to the remote default)")
	updateCmd.Flags().StringVar(&updateURL, "url", "", "Change the upstream URL before updating")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Discard uncommitted changes in the submodule")
	rootCmd.AddCommand(updateCmd)
}
