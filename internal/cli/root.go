package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "teamtrack",
	Short: "Wrestling team tracker with a timed focus grid drill",
	Long: `teamtrack serves the team app: athletes sign in, log weigh-ins and run
the focus grid drill; coaches see the roster. State lives in a SQLite
database under .teamtrack/ in the project directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var projectDirFlag string

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("teamtrack version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&projectDirFlag, "dir", "C", "", "project directory holding .teamtrack/ (default: current directory)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// projectDir returns the --dir flag or the working directory.
func projectDir() (string, error) {
	if projectDirFlag != "" {
		return projectDirFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}
