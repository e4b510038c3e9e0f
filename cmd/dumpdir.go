package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpDirCmd = &cobra.Command{
	Use:                   "dump-dir",
	Short:                 "Pretty-print all directory segments",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, _, err := openFilesystem()
		if err != nil {
			return err
		}

		for _, e := range fs.Enumerate(true) {
			year, month, day, hasDate := e.Date()
			date := "-"
			if hasDate {
				date = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			}
			fmt.Printf("%-10s %-12s length=%-6d start=%-6d date=%s pre-alloc=%v protected=%v\n",
				e.Name(), e.Kind.String(), e.Length, e.StartBlock, date, e.PreAllocated, e.ProtectedByMonitor)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpDirCmd)
}
