package planner

import (
	"path/filepath"
	"strings"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/infra/fsx"
)

// Options 控制冲突消解。
type Options struct {
	Layout domain.Layout

	// UseSourceExt 为 true 时每个成员保留自己的扩展名（EXIF 模式），否则统一使用规范目标的扩展名。
	UseSourceExt bool

	// Exists 查询路径是否已被占用；nil 时实时查询文件系统。
	Exists func(path string) bool
}

// Resolve 为每个组生成 Renames（不做任何写入/移动）。
//
// 规则：
// - 组内第一个 "源路径 == 规范目标" 的成员占用规范名，不产生 rename
// - 若无人占用，第一个剩余成员在规范目标空闲时直接使用规范名
// - 其他成员依次尝试 "<base>-duplicate-NNN<ext>"（计数器每组从 1 开始，每次尝试都递增）
// - 候选名必须既不存在于磁盘、也未被本次运行中更早的规划占用
// - 候选名恰好是成员自己的源路径时视为已就位（重跑幂等），不产生 rename
func Resolve(groups []*domain.DuplicateGroup, opts Options) {
	exists := opts.Exists
	if exists == nil {
		exists = fsx.Exists
	}
	claimed := make(map[string]struct{}, len(groups))
	taken := func(p string) bool {
		if _, ok := claimed[p]; ok {
			return true
		}
		return exists(p)
	}
	claim := func(p string) { claimed[p] = struct{}{} }

	for _, g := range groups {
		resolveGroup(g, opts, taken, claim)
	}
}

func resolveGroup(g *domain.DuplicateGroup, opts Options, taken func(string) bool, claim func(string)) {
	base, ext := g.TargetBase(), g.TargetExt()
	if opts.UseSourceExt && len(g.Members) > 0 {
		// 目标名由首个成员的扩展名拼成；base 不能再用 filepath.Ext 推断（base 本身可能含点）。
		ext = g.Members[0].Ext
		base = strings.TrimSuffix(filepath.Base(g.Target), ext)
	}
	extOf := func(m domain.File) string {
		if opts.UseSourceExt {
			return m.Ext
		}
		return ext
	}

	g.Holder = ""
	pairs := make([]domain.RenamePair, 0, len(g.Members))
	for _, m := range g.Members {
		dst := opts.Layout.TargetPath(m, base+extOf(m))
		if g.Holder == "" && dst == m.AbsPath {
			g.Holder = dst
			claim(dst)
			continue
		}
		pairs = append(pairs, domain.RenamePair{Src: m, Dst: dst})
	}

	renames := make([]domain.RenamePair, 0, len(pairs))
	counter := 1
	for i, p := range pairs {
		if i == 0 && g.Holder == "" && !taken(p.Dst) {
			claim(p.Dst)
			renames = append(renames, p)
			continue
		}

		dir := filepath.Dir(p.Dst)
		for {
			cand := filepath.Join(dir, domain.WithDuplicateSuffix(base, counter)+extOf(p.Src))
			counter++
			if cand == p.Src.AbsPath || !taken(cand) {
				p.Dst = cand
				break
			}
		}
		claim(p.Dst)
		if p.Dst == p.Src.AbsPath {
			continue
		}
		renames = append(renames, p)
	}
	g.Renames = renames
}
