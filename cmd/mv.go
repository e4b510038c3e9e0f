package cmd

import (
	"github.com/spf13/cobra"
)

var mvOverwrite bool

var mvCmd = &cobra.Command{
	Use:                   "mv src dest",
	Short:                 "Rename a file within the image",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, dev, err := openFilesystem()
		if err != nil {
			return err
		}
		if err := fs.Rename(args[0], args[1], mvOverwrite); err != nil {
			return err
		}
		return saveFilesystem(dev)
	},
}

func init() {
	mvCmd.Flags().BoolVarP(&mvOverwrite, "force", "f", false, "overwrite dest if it exists")
	rootCmd.AddCommand(mvCmd)
}
