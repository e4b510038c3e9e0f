// Command rt11img reads, mutates and writes RT-11/XXDP PDP-11 disk images.
package main

import (
	"fmt"
	"os"

	"rt11img/cmd"
	"rt11img/rt11err"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an rt11err.Kind to the exit codes from spec §6.1/§7:
// 1=usage, 2=not-found/exists, 3=format/geometry/corruption,
// 4=no-space/directory-full, 5=io. Errors that aren't an *rt11err.Error
// (flag parsing, argument validation) are usage errors.
func exitCodeFor(err error) int {
	kind, ok := rt11err.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case rt11err.NotFound, rt11err.Exists:
		return 2
	case rt11err.ImageFormat, rt11err.GeometryMismatch, rt11err.Corruption:
		return 3
	case rt11err.NoSpace, rt11err.DirectoryFull:
		return 4
	case rt11err.Io:
		return 5
	default:
		return 1
	}
}
