package http

import "github.com/spf13/cobra"

// NewHTTPCommand groups the API server subcommands.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the review API server",
		Long:  "Serve the task, proof review and notification API over HTTP.",
	}
	cmd.AddCommand(NewStartCommand())
	return cmd
}
