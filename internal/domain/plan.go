package domain

import "path/filepath"

// RenamePair 规划一次文件移动/复制。
//
// Dst 在冲突消解阶段会被多次改写，因此只由 planner 独占修改；执行阶段只读。
type RenamePair struct {
	Src File
	Dst string // clean absolute
}

// DstName 返回目标文件名（含扩展名）。
func (p RenamePair) DstName() string { return filepath.Base(p.Dst) }

// IsDuplicate 判断目标文件名是否带消歧后缀。
func (p RenamePair) IsDuplicate() bool { return IsDuplicateName(p.DstName()) }

// DuplicateGroup 是按 duplicate key 聚合后的工作单元。
//
// 约束：
// - Members 保持枚举顺序（决定谁拿到不带后缀的名字）
// - Target 是首个成员计算出的规范目标路径（尚未消歧）
// - Renames 由 planner 填充；自重命名（Src==Dst）不会出现在其中
type DuplicateGroup struct {
	Key     string
	Members []File
	Target  string

	Renames []RenamePair

	// Holder 是已占用规范名且无需移动的成员路径（源路径恰好等于目标路径）；为空表示无人占用。
	Holder string
}

// TargetBase 返回规范目标的 base（不含扩展名）。
func (g *DuplicateGroup) TargetBase() string {
	b, _ := SplitName(filepath.Base(g.Target))
	return b
}

// TargetExt 返回规范目标的扩展名（含点）。
func (g *DuplicateGroup) TargetExt() string {
	return filepath.Ext(g.Target)
}

// Layout 决定目标路径：目标根目录 + 源文件相对目录 + 目标文件名（保持目录结构）。
type Layout struct {
	Source string
	Target string
}

// TargetPath 返回 f 以 name 落盘时的绝对路径。
func (l Layout) TargetPath(f File, name string) string {
	return filepath.Join(l.Target, f.RelDir, name)
}
