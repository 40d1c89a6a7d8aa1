package domain

import (
	"path/filepath"
	"strings"
)

// File 描述一次枚举得到的源文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - 枚举阶段只做 stat；"目标是否已存在/可写" 必须在用到时实时查询，不在这里缓存
type File struct {
	AbsPath string
	RelDir  string // 相对源目录的父目录；根目录下为 "."
	Base    string // filename without ext
	Ext     string // ".JPG"（保留原大小写；无扩展名时为空）
	Size    int64
	ModUnix int64
}

// NewFile 从绝对路径构造 File（Size/ModUnix 由调用方按需补齐）。
func NewFile(root, absPath string) File {
	name := filepath.Base(absPath)
	ext := filepath.Ext(name)
	rel, err := filepath.Rel(root, filepath.Dir(absPath))
	if err != nil {
		rel = "."
	}
	return File{
		AbsPath: absPath,
		RelDir:  rel,
		Base:    strings.TrimSuffix(name, ext),
		Ext:     ext,
	}
}

// Name 返回含扩展名的文件名。
func (f File) Name() string { return f.Base + f.Ext }

// Dir 返回文件所在目录（绝对路径）。
func (f File) Dir() string { return filepath.Dir(f.AbsPath) }

// Stem 返回去掉扩展名的绝对路径，用于把同名不同扩展名的文件（如 Live Photo）归到一起。
func (f File) Stem() string { return strings.TrimSuffix(f.AbsPath, f.Ext) }

// RelPath 返回相对源目录的路径。
func (f File) RelPath() string { return filepath.Join(f.RelDir, f.Name()) }

// SplitName 把文件名拆成 base + ext（ext 含点）。
func SplitName(name string) (base, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
