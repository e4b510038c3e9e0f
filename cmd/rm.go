package cmd

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:                   "rm name",
	Short:                 "Delete a file from the image",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, dev, err := openFilesystem()
		if err != nil {
			return err
		}
		if err := fs.Remove(args[0]); err != nil {
			return err
		}
		return saveFilesystem(dev)
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
