// Package dupkey 计算分组用的 duplicate key（DuplicateKeyStrategy）。
//
// 同一 key 的文件被视为 "争夺同一个目标名" 的一组。
package dupkey

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

// ErrSkip 表示该文件无法计算 key，应从批次中剔除。
var ErrSkip = errors.New("dupkey: skip")

// Keyer 根据源文件与其规范目标路径计算 key。
type Keyer interface {
	Key(src domain.File, target string) (string, error)
}

// TargetPathname 以完整目标路径为 key。
type TargetPathname struct{}

func (TargetPathname) Key(_ domain.File, target string) (string, error) {
	return target, nil
}

// TargetFilename 以目标文件名为 key（跨目录的同名文件归为一组）。
type TargetFilename struct{}

func (TargetFilename) Key(_ domain.File, target string) (string, error) {
	return filepath.Base(target), nil
}

// ContentHash 以文件内容的 XXH3-128 摘要（32 位十六进制）为 key。
type ContentHash struct{}

func (ContentHash) Key(src domain.File, _ string) (string, error) {
	sum, err := HashFile(src.AbsPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkip, err)
	}
	return sum, nil
}

// HashFile 流式计算文件内容的 XXH3-128，返回大端十六进制串。
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	b := h.Sum128().Bytes()
	return hex.EncodeToString(b[:]), nil
}
