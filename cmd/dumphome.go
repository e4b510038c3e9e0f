package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rt11img/hostio"
	"rt11img/rt11"
)

var dumpHomeCmd = &cobra.Command{
	Use:                   "dump-home",
	Short:                 "Pretty-print home block fields",
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
		blockData, err := readLogicalBlock1(data)
		if err != nil {
			return err
		}

		hb, err := rt11.DecodeHomeBlock(blockData)
		if err != nil {
			return err
		}
		if !rt11.VerifyChecksum(blockData) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: home block checksum mismatch")
		}

		fmt.Printf("cluster_size:                  %d\n", hb.ClusterSize)
		fmt.Printf("first_directory_segment_block: %d\n", hb.FirstDirectorySegmentBlock)
		fmt.Printf("volume_id:                     %q\n", strings.TrimRight(string(hb.VolumeID[:]), " "))
		fmt.Printf("owner_name:                    %q\n", strings.TrimRight(string(hb.OwnerName[:]), " "))
		fmt.Printf("system_id:                     %q\n", strings.TrimRight(string(hb.SystemID[:]), " "))
		fmt.Printf("checksum:                      0x%04x\n", hb.Checksum)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpHomeCmd)
}
