//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// isEXDEV 判断 rename 是否因源与目标不在同一文件系统而失败（*os.LinkError 内层为 EXDEV）。
func isEXDEV(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.EXDEV
}
