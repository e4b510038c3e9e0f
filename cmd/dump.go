package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rt11img/block"
	"rt11img/container"
	"rt11img/hostio"
)

var dumpSectors bool

var dumpCmd = &cobra.Command{
	Use:                   "dump",
	Short:                 "Hex-dump logical blocks (or physical sectors with -s)",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	SilenceUsage:          true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireImagePath(); err != nil {
			return err
		}
		data, err := hostio.ReadHostFile(imagePath)
		if err != nil {
			return err
		}
		c, err := container.Load(data)
		if err != nil {
			return err
		}

		if dumpSectors {
			return dumpPhysicalSectors(c)
		}
		return dumpLogicalBlocks(block.New(c))
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&dumpSectors, "sectors", "s", false, "dump physical sectors instead of logical blocks")
	rootCmd.AddCommand(dumpCmd)
}

func dumpLogicalBlocks(dev *block.Device) error {
	for n := 0; n < dev.BlockCount(); n++ {
		blk, err := dev.ReadBlock(n)
		if err != nil {
			return err
		}
		fmt.Printf("block %d:\n%s", n, hexDump(n*512, blk))
	}
	return nil
}

func dumpPhysicalSectors(c *container.Container) error {
	g := c.Geometry
	for t := 0; t < g.Tracks; t++ {
		for s := 0; s < g.SectorsPerTrack; s++ {
			data, err := c.SectorBytes(t, s)
			if err != nil {
				return err
			}
			fmt.Printf("track %d sector %d:\n%s", t, s, hexDump(0, data))
		}
	}
	return nil
}
