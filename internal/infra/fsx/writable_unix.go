//go:build unix

package fsx

import "golang.org/x/sys/unix"

// IsWritable 判断当前进程能否写入 path（access(2) W_OK，按真实 uid/gid 判断）。
func IsWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
