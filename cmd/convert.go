package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"rt11img/container"
	"rt11img/hostio"
)

var convertCmd = &cobra.Command{
	Use:                   "convert kind dest",
	Short:                 "Rewrite the image in a different container format",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireImagePath(); err != nil {
			return err
		}

		var kind container.Kind
		switch args[0] {
		case "img":
			kind = container.Flat
		case "imd":
			kind = container.Imd
		default:
			return errors.Errorf("convert: unsupported container kind %q (img or imd)", args[0])
		}

		data, err := hostio.ReadHostFile(imagePath)
		if err != nil {
			return err
		}
		c, err := container.Load(data)
		if err != nil {
			return err
		}

		out, err := c.Save(kind)
		if err != nil {
			return err
		}
		return hostio.WriteHostFile(args[1], out)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
