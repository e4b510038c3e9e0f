package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"rt11img/block"
	"rt11img/container"
	"rt11img/hostio"
	"rt11img/rt11"
)

var mkfsCmd = &cobra.Command{
	Use:                   "mkfs device filesystem",
	Short:                 "Create a new blank volume",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireImagePath(); err != nil {
			return err
		}
		if hostio.HostPathExists(imagePath) {
			return errors.Errorf("mkfs: %s already exists", imagePath)
		}

		device, fsKind, err := parseMkfsArgs(args[0], args[1])
		if err != nil {
			return err
		}

		blank := make([]byte, device.TotalBytes())
		c, err := container.Load(blank)
		if err != nil {
			return err
		}
		dev := block.New(c)

		if _, err := rt11.Format(dev, fsKind, nil); err != nil {
			return err
		}
		return saveFilesystem(dev)
	},
}

func parseMkfsArgs(device, filesystem string) (container.Geometry, rt11.FilesystemKind, error) {
	var g container.Geometry
	switch device {
	case "rx01":
		g = container.RX01Geometry()
	default:
		return container.Geometry{}, 0, errors.Errorf("mkfs: unsupported device %q (only rx01)", device)
	}

	switch filesystem {
	case "rt11":
		return g, rt11.RT11, nil
	case "xxdp":
		return g, rt11.XXDP, nil
	default:
		return container.Geometry{}, 0, errors.Errorf("mkfs: unsupported filesystem %q (rt11 or xxdp)", filesystem)
	}
}

func init() {
	rootCmd.AddCommand(mkfsCmd)
}
