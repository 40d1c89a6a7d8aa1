package run

import (
	"time"

	"github.com/John-Robertt/PhotoRenamer/internal/config"
	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

// Observer 用于把 "运行进度/阶段/逐文件结果" 从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件全部在调用 Execute 的 goroutine 中按顺序发出。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnProgress 在阶段内推进时调用；total < 0 表示总数未知。
	OnProgress(phase string, done, total int)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnSkip 在文件被策略剔除时调用（err 可能是静默跳过，见 app.IsSilentSkip）。
	OnSkip(f domain.File, err error)
	// OnFileDone 在每个 rename 处理完成（或在 dry-run 中规划完成）时调用。
	OnFileDone(idx, total int, res domain.FileResult)
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                    {}
func (nopObserver) OnProgress(string, int, int)                       {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnSkip(domain.File, error)                         {}
func (nopObserver) OnFileDone(int, int, domain.FileResult)            {}
