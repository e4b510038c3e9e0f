// Package cmd implements the rt11img command-line tool: open/mkfs an image,
// list/copy/rename/remove files on it, and inspect its raw structure.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rt11img/block"
	"rt11img/container"
	"rt11img/hostio"
	"rt11img/rt11"
)

var imagePath string

var rootCmd = &cobra.Command{
	Use:   "rt11img",
	Short: "Read, mutate and write RT-11/XXDP PDP-11 disk images",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&imagePath, "image", "i", "", "path to the disk image (required)")
}

// Execute runs the CLI, returning any error from the selected subcommand.
func Execute() error {
	return rootCmd.Execute()
}

func requireImagePath() error {
	if imagePath == "" {
		return errors.New("-i/--image is required")
	}
	return nil
}

// containerKindFromPath infers the save container kind from the image
// path's extension, per spec §6.1.
func containerKindFromPath(path string) container.Kind {
	if strings.EqualFold(filepath.Ext(path), ".imd") {
		return container.Imd
	}
	return container.Flat
}

// openFilesystem loads imagePath and walks its directory chain.
func openFilesystem() (*rt11.Filesystem, *block.Device, error) {
	if err := requireImagePath(); err != nil {
		return nil, nil, err
	}
	data, err := hostio.ReadHostFile(imagePath)
	if err != nil {
		return nil, nil, err
	}
	c, err := container.Load(data)
	if err != nil {
		return nil, nil, err
	}
	c.SetLogger(logrus.StandardLogger())
	dev := block.New(c)
	fs, err := rt11.Open(dev, logrus.StandardLogger())
	if err != nil {
		return nil, nil, err
	}
	return fs, dev, nil
}

// readLogicalBlock1 loads raw image bytes and returns logical block 1 (the
// home block), without walking the directory chain.
func readLogicalBlock1(data []byte) ([]byte, error) {
	c, err := container.Load(data)
	if err != nil {
		return nil, err
	}
	return block.New(c).ReadBlock(1)
}

// saveFilesystem writes dev's backing container back to imagePath, in the
// container kind inferred from the path's extension.
func saveFilesystem(dev *block.Device) error {
	out, err := dev.Container().Save(containerKindFromPath(imagePath))
	if err != nil {
		return err
	}
	return hostio.WriteHostFile(imagePath, out)
}

// splitImageName uppercases the "NAME.EXT" form used by image-side paths.
func splitImageName(p string) string {
	return strings.ToUpper(filepath.Base(p))
}

// isHostPath reports whether p names a host path rather than an image
// filename, per spec §6.1: "a path containing '/' is a host path".
func isHostPath(p string) bool {
	return strings.Contains(p, string(os.PathSeparator)) || strings.Contains(p, "/")
}
