//go:build !unix

package fsx

import "os"

// IsWritable 判断当前进程能否写入 path（以只写方式打开探测，不截断）。
func IsWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
