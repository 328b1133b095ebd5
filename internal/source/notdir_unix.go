//go:build !windows

package source

import (
	"errors"
	"syscall"
)

// isNotDir reports ENOTDIR, returned when a path walks through a regular file.
func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
