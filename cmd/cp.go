package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"rt11img/hostio"
)

var cpCmd = &cobra.Command{
	Use:                   "cp src dest",
	Short:                 "Copy a file between the host and the image",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCp(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
}

// runCp copies src to dest. Exactly one side must be a host path; the other
// is a name on the image. A lone "." on either side means "same name, other
// side", per spec §6.1.
func runCp(src, dest string) error {
	srcIsHost := isHostPath(src)
	destIsHost := isHostPath(dest)

	if src == "." && dest == "." {
		return errors.New("cp: src and dest cannot both be '.'")
	}
	if src == "." {
		if destIsHost {
			src = splitImageName(dest)
			srcIsHost = false
		} else {
			src = dest
			srcIsHost = true
		}
	}
	if dest == "." {
		if srcIsHost {
			dest = splitImageName(src)
			destIsHost = false
		} else {
			dest = src
			destIsHost = true
		}
	}

	if srcIsHost == destIsHost {
		return errors.New("cp: exactly one of src/dest must be a host path (containing '/')")
	}

	fs, dev, err := openFilesystem()
	if err != nil {
		return err
	}

	if srcIsHost {
		data, err := hostio.ReadHostFile(src)
		if err != nil {
			return err
		}
		if err := fs.Insert(splitImageName(dest), data); err != nil {
			return err
		}
		return saveFilesystem(dev)
	}

	data, err := fs.Extract(splitImageName(src))
	if err != nil {
		return err
	}
	return hostio.WriteHostFile(dest, data)
}
