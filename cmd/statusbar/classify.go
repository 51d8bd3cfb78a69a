package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [type...]",
	Short: "Show the severity of message types",
	Long: `Classify message types using the built-in names and the configured
vocabulary, and show the queue each one waits in. With no arguments every
known type is listed.

Examples:
  statusbar classify
  statusbar classify warn deploy`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	table, err := cfg.Table()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = table.Names()
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSEVERITY\tQUEUE")
	var failed int
	for _, name := range args {
		sev, err := table.Classify(name)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\n", name)
			failed++
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, sev, sev.QueueKey())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d unclassified type(s)", failed)
	}
	return nil
}
