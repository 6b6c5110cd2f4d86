package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pistonite/magoo/internal/branding"
	"github.com/Pistonite/magoo/internal/config"
	"github.com/Pistonite/magoo/internal/gitcmd"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionShort {
			fmt.Println(buildVersion)
			return nil
		}

		gitVersion := "unknown"
		supported := false
		if runner, err := gitcmd.NewExecRunner(config.GitBin()); err == nil {
			if v, err := gitcmd.Version(cmd.Context(), runner); err == nil {
				gitVersion = v.String()
				supported = gitcmd.Supported(v)
			}
		}

		if versionJSON {
			info := map[string]any{
				"version":       buildVersion,
				"commit":        buildCommit,
				"date":          buildDate,
				"git_version":   gitVersion,
				"git_supported": supported,
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("%s version %s (commit: %s, built: %s)\n", branding.CLIName(), buildVersion, buildCommit, buildDate)
		fmt.Printf("git version %s (supported: %v, requires %s)\n", gitVersion, supported, gitcmd.SupportedGitVersions)
		return nil
	},
}
