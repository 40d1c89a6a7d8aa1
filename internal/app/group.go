package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/dupkey"
	"github.com/John-Robertt/PhotoRenamer/internal/naming"
)

// SkipFunc 接收被剔除的文件及原因。err 可能包装 naming.ErrSkip / dupkey.ErrSkip（静默跳过），
// 也可能是真正的策略错误（需要报告）。
type SkipFunc func(f domain.File, err error)

// IsSilentSkip 判断剔除原因是否属于 "正常跳过"（不需要作为错误报告）。
func IsSilentSkip(err error) bool {
	return errors.Is(err, naming.ErrSkip) || errors.Is(err, dupkey.ErrSkip)
}

// Grouper 按 duplicate key 增量聚合文件。
//
// - 组按 key 首次出现的顺序排列
// - 组内成员保持加入顺序
// - Target 取首个成员的规范目标路径
type Grouper struct {
	namer  naming.Namer
	keyer  dupkey.Keyer
	layout domain.Layout
	onSkip SkipFunc

	index  map[string]int
	groups []*domain.DuplicateGroup
}

func NewGrouper(namer naming.Namer, keyer dupkey.Keyer, layout domain.Layout, onSkip SkipFunc) *Grouper {
	return &Grouper{
		namer:  namer,
		keyer:  keyer,
		layout: layout,
		onSkip: onSkip,
		index:  make(map[string]int, 128),
		groups: make([]*domain.DuplicateGroup, 0, 128),
	}
}

// Add 计算 f 的目标名与 key 并归组；返回 false 表示 f 被剔除。
func (g *Grouper) Add(f domain.File) bool {
	name, err := g.namer.TargetName(f)
	if err == nil {
		err = validName(name)
	}
	if err != nil {
		g.skip(f, err)
		return false
	}
	target := g.layout.TargetPath(f, name)

	key, err := g.keyer.Key(f, target)
	if err != nil {
		g.skip(f, err)
		return false
	}

	if idx, ok := g.index[key]; ok {
		g.groups[idx].Members = append(g.groups[idx].Members, f)
		return true
	}
	g.index[key] = len(g.groups)
	g.groups = append(g.groups, &domain.DuplicateGroup{
		Key:     key,
		Members: []domain.File{f},
		Target:  target,
	})
	return true
}

func (g *Grouper) skip(f domain.File, err error) {
	if g.onSkip != nil {
		g.onSkip(f, err)
	}
}

// Groups 返回当前聚合结果（按首次出现顺序）。
func (g *Grouper) Groups() []*domain.DuplicateGroup { return g.groups }

// GroupFiles 是 Grouper 的一次性版本。
func GroupFiles(files []domain.File, namer naming.Namer, keyer dupkey.Keyer, layout domain.Layout, onSkip SkipFunc) []*domain.DuplicateGroup {
	if p, ok := namer.(naming.Preparer); ok {
		p.Prepare(files)
	}
	gr := NewGrouper(namer, keyer, layout, onSkip)
	for _, f := range files {
		gr.Add(f)
	}
	return gr.Groups()
}

// validName 拒绝会逃出目标目录或无法落盘的文件名。
func validName(name string) error {
	switch {
	case strings.TrimSpace(name) == "", name == ".", name == "..":
		return fmt.Errorf("目标文件名无效：%q", name)
	case strings.ContainsRune(name, '/'), strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("目标文件名不能包含路径分隔符：%q", name)
	}
	return nil
}
