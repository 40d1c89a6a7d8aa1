//go:build unix

package fsx

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isEXDEV 识别跨设备 rename 失败；*os.LinkError 由 errors.As 逐层展开。
func isEXDEV(err error) bool {
	var errno unix.Errno
	return errors.As(err, &errno) && errno == unix.EXDEV
}
