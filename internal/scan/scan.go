package scan

import (
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

// Filter 决定某个文件是否进入批次。目录永远放行（保证能递归）。
type Filter func(d fs.DirEntry) bool

// MatchName 返回 "文件名匹配正则" 的过滤器。
func MatchName(re *regexp.Regexp) Filter {
	return func(d fs.DirEntry) bool { return re.MatchString(d.Name()) }
}

// HasUppercase 返回 "文件名至少包含一个大写字母" 的过滤器。
func HasUppercase() Filter {
	return func(d fs.DirEntry) bool {
		return strings.IndexFunc(d.Name(), unicode.IsUpper) >= 0
	}
}

// Options 控制一次枚举。
type Options struct {
	Filter Filter // nil 表示不过滤

	// ExcludeDirs 均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）；命中的子树整体跳过。
	ExcludeDirs []string
	// ExcludeFiles 是不参与枚举的单个文件（例如源目录下的配置文件），路径规则同 ExcludeDirs。
	ExcludeFiles []string
}

// ErrStop 可由 Walk 的回调返回，用于提前结束枚举（Walk 本身返回 nil）。
var ErrStop = errors.New("scan: stop")

// Walk 深度优先枚举 root 下的普通文件，逐个交给 fn（惰性：不预先收集）。
//
// 规则（硬约束）：
// - 只产出普通文件；目录只递归不产出；符号链接等非普通文件忽略
// - 同一目录内按文件名字典序（fs.WalkDir 的顺序），保证分组与编号稳定
// - 任何子目录不可读都是整次运行的致命错误（不做部分跳过）
//
// 注意：枚举阶段只做 stat（DirEntry.Info），不读文件内容。
func Walk(root string, opts Options, fn func(domain.File) error) error {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, append(append([]string(nil), opts.ExcludeDirs...), opts.ExcludeFiles...))

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if opts.Filter != nil && !opts.Filter(d) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		f := domain.NewFile(root, path)
		f.Size = info.Size()
		f.ModUnix = info.ModTime().Unix()
		return fn(f)
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// Count 只统计满足条件的文件数量（用于进度条总数）。
func Count(root string, opts Options) (int, error) {
	n := 0
	err := Walk(root, opts, func(domain.File) error {
		n++
		return nil
	})
	return n, err
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
