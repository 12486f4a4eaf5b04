package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BartekS5/xfer/internal/config"
)

// newCountCmd prints the row count of one table, the check the old scripts
// ran before and after every migration.
func newCountCmd(a *app) *cobra.Command {
	var endpoint, table, credential string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of rows in a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runCount(cmd.Context(), a, endpoint, table, credential)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&endpoint, "url", "u", "", "Endpoint URL")
	cmd.Flags().StringVarP(&table, "table", "t", "", "Table name")
	cmd.Flags().StringVarP(&credential, "credential", "c", "", "Credential reference, e.g. env:KEY")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("table")

	return cmd
}

// newValidateCmd loads a job file and checks it without connecting anywhere.
func newValidateCmd() *cobra.Command {
	var jobFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a job file without connecting to any endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.LoadJob(jobFile)
			if err != nil {
				return err
			}
			if err := config.Finalize(job); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "job %q is valid\n", job.Name)
			fmt.Fprintf(out, "  %s.%s -> %s.%s\n", job.Source.URL, job.Source.Table, job.Destination.URL, job.Destination.Table)
			fmt.Fprintf(out, "  mode=%s batch_size=%d fields=%d\n", job.Mode, job.BatchSize, len(job.Fields))
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "Path to the job file")
	cmd.MarkFlagRequired("job")

	return cmd
}
