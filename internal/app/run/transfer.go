package run

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/infra/fsx"
)

// FatalError 表示传输阶段的致命错误：当前 pass 立即中止，已完成的移动不回滚。
type FatalError struct {
	Code string // domain.ErrCode*
	Op   string
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s失败：%q：%v", e.Op, e.Path, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal 判断 err 是否为 FatalError。
func IsFatal(err error) bool {
	var e *FatalError
	return errors.As(err, &e)
}

var (
	moveFunc = fsx.Move
	copyFunc = fsx.Copy
)

// transfer 执行一次移动/复制。
//
// 前置检查（任一失败即致命）：
// - 目标目录存在或可创建
// - 源路径是普通文件
// - 目标不存在，或存在但可写
func transfer(p domain.RenamePair, copyFiles bool) error {
	dir := filepath.Dir(p.Dst)
	if err := fsx.EnsureDir(dir); err != nil {
		return &FatalError{Code: domain.ErrCodeDirNotCreated, Op: "创建目录", Path: dir, Err: err}
	}
	if !fsx.IsRegular(p.Src.AbsPath) {
		return &FatalError{Code: domain.ErrCodeSourceNotFile, Op: "读取源文件", Path: p.Src.AbsPath, Err: errors.New("源路径不存在或不是普通文件")}
	}
	if fsx.Exists(p.Dst) && !fsx.IsWritable(p.Dst) {
		return &FatalError{Code: domain.ErrCodeTargetNotWritable, Op: "写入目标文件", Path: p.Dst, Err: errors.New("目标文件不可写")}
	}

	op, name := moveFunc, "移动"
	if copyFiles {
		op, name = copyFunc, "复制"
	}
	if err := op(p.Src.AbsPath, p.Dst); err != nil {
		return &FatalError{Code: domain.ErrCodeTransferFailed, Op: name, Path: p.Src.AbsPath, Err: err}
	}
	return nil
}
