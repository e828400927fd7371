package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/muthu-2006-p/employeetimesheettracker-sub000/cmd/http"
	systemcmd "github.com/muthu-2006-p/employeetimesheettracker-sub000/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Task completion review service for the employee timesheet tracker.",
	Long: `timesheet runs the proof-of-completion review cycle: employees submit proof
for assigned tasks, managers approve or request rework, and approved employees
are moved onto their next task.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
