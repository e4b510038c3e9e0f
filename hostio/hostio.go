// Package hostio is the thin boundary between the core (storage, container,
// block, rt11) and the host filesystem. Nothing outside this package and
// cmd ever imports "os" directly, the same separation digler's internal/fs
// draws between its File abstraction and the core scanner.
package hostio

import (
	"os"

	"rt11img/rt11err"
)

// ReadHostFile reads an entire host file into memory.
func ReadHostFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rt11err.Wrap(rt11err.Io, err, "reading "+path)
	}
	return data, nil
}

// WriteHostFile writes data to path, creating or truncating it, with mode
// 0644.
func WriteHostFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return rt11err.Wrap(rt11err.Io, err, "writing "+path)
	}
	return nil
}

// HostPathExists reports whether path names an existing host file or
// directory.
func HostPathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
