package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Pistonite/magoo/internal/ops"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a submodule completely",
	Long: `Remove deletes a submodule's working tree, its .git/modules storage, its
config entries, and its .gitmodules declaration. The steps run in an order
that stays recoverable: an interrupted removal leaves residue that
status --fix or a rerun of remove can finish cleaning up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		report, err := ops.Remove(cmd.Context(), env, ops.RemoveOptions{
			Name:  args[0],
			Force: removeForce,
		})
		if err != nil {
			return err
		}
		return finishReport(os.Stdout, report)
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Remove even if the submodule has uncommitted changes")
	rootCmd.AddCommand(removeCmd)
}
