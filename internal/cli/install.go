package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Pistonite/magoo/internal/ops"
)

var (
	installBranch string
	installName   string
	installDepth  int
	installForce  bool
)

var installCmd = &cobra.Command{
	Use:   "install [URL [PATH]]",
	Short: "Add a new submodule, or bring all submodules to their recorded state",
	Long: `With no arguments, install clones every missing submodule and checks each
out at the commit recorded in the superproject index. It never fetches new
upstream commits; for that, use update.

With a URL, install adds a new submodule. PATH defaults to the last
component of the URL.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		if installDepth > 0 {
			env.Depth = installDepth
		}
		opts := ops.InstallOptions{
			Branch: installBranch,
			Name:   installName,
			Depth:  installDepth,
			Force:  installForce,
		}
		if len(args) > 0 {
			opts.URL = args[0]
		}
		if len(args) > 1 {
			opts.Path = args[1]
		}
		report, err := ops.Install(cmd.Context(), env, opts)
		if err != nil {
			return err
		}
		return finishReport(os.Stdout, report)
	},
}

func init() {
	installCmd.Flags().StringVarP(&installBranch, "branch", "b", "", "Branch to track when adding a submodule")
	installCmd.Flags().StringVar(&installName, "name", "", "Logical name for the new submodule (defaults to its path)")
	installCmd.Flags().IntVar(&installDepth, "depth", 0, "Create a shallow clone with this history depth")
	installCmd.Flags().BoolVar(&installForce, "force", false, "Proceed despite name or path conflicts, or discard local changes")
	rootCmd.AddCommand(installCmd)
}
