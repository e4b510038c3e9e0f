package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	lsAll  bool
	lsLong bool
)

var lsCmd = &cobra.Command{
	Use:                   "ls",
	Short:                 "Print directory entries",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, _, err := openFilesystem()
		if err != nil {
			return err
		}

		for _, e := range fs.Enumerate(lsAll) {
			if lsLong {
				year, month, day, hasDate := e.Date()
				date := "-"
				if hasDate {
					date = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
				}
				fmt.Printf("%-10s %-10s %6d %s pre-alloc=%v protected=%v start=%d\n",
					e.Name(), e.Kind.String(), e.Length, date, e.PreAllocated, e.ProtectedByMonitor, e.StartBlock)
				continue
			}
			fmt.Printf("%-10s %6d\n", e.Name(), e.Length)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "include non-permanent entries")
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "print all raw fields")
	rootCmd.AddCommand(lsCmd)
}
