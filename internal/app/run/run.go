package run

import (
	"errors"
	"fmt"
	"time"

	"github.com/John-Robertt/PhotoRenamer/internal/app"
	"github.com/John-Robertt/PhotoRenamer/internal/app/planner"
	"github.com/John-Robertt/PhotoRenamer/internal/config"
	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/scan"
)

// Execute 执行一次批量重命名（dry-run/apply），并返回对外稳定的 RunReport。
func Execute(eff config.EffectiveConfig, mode app.Mode) domain.RunReport {
	return ExecuteWithObserver(eff, mode, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
//
// 四个阶段严格串行：scan -> group -> plan -> transfer。
// 传输阶段遇到致命错误立即停止，剩余条目保持 pending。
func ExecuteWithObserver(eff config.EffectiveConfig, mode app.Mode, obs Observer) domain.RunReport {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	rr := domain.RunReport{
		Command:   eff.Command,
		Source:    eff.Source,
		Target:    eff.Target,
		DryRun:    eff.DryRun,
		Copy:      eff.Copy,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.FileResult, 0, 128),
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	// scan
	scanStarted := time.Now()
	opts := scan.Options{Filter: mode.Filter, ExcludeDirs: eff.ExcludeDirs}
	if eff.ConfigFile != "" {
		opts.ExcludeFiles = []string{eff.ConfigFile}
	}
	total, err := scan.Count(eff.Source, opts)
	if err != nil {
		rr.ErrorCode = domain.ErrCodeScanFailed
		rr.ErrorMsg = fmt.Sprintf("扫描失败：%v", err)
		return finish()
	}
	files := make([]domain.File, 0, total)
	err = scan.Walk(eff.Source, opts, func(f domain.File) error {
		files = append(files, f)
		obs.OnProgress("scan", len(files), total)
		return nil
	})
	if err != nil {
		rr.ErrorCode = domain.ErrCodeScanFailed
		rr.ErrorMsg = fmt.Sprintf("扫描失败：%v", err)
		return finish()
	}
	rr.Summary.Files = len(files)
	obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, time.Since(scanStarted))

	// group
	groupStarted := time.Now()
	layout := domain.Layout{Source: eff.Source, Target: eff.Target}
	dropped := 0
	groups := app.GroupFiles(files, mode.Namer, mode.Keyer, layout, func(f domain.File, err error) {
		dropped++
		obs.OnSkip(f, err)
	})
	rr.Summary.Groups = len(groups)
	obs.OnPhaseDone("group", map[string]any{
		"groups":  len(groups),
		"dropped": dropped,
	}, time.Since(groupStarted))

	// plan
	planStarted := time.Now()
	planner.Resolve(groups, planner.Options{Layout: layout, UseSourceExt: mode.UseSourceExt})
	renames, dups := 0, 0
	for _, g := range groups {
		renames += len(g.Renames)
		for _, p := range g.Renames {
			if p.IsDuplicate() {
				dups++
			}
		}
	}
	obs.OnPhaseDone("plan", map[string]any{
		"renames":    renames,
		"duplicates": dups,
	}, time.Since(planStarted))

	// transfer
	transferStarted := time.Now()
	var fatal *FatalError
	idx := 0
	for _, g := range groups {
		for _, p := range g.Renames {
			res := domain.FileResult{
				Src:       p.Src.AbsPath,
				Dst:       p.Dst,
				Status:    domain.FileStatusPending,
				Duplicate: p.IsDuplicate(),
			}
			if fatal != nil {
				rr.Items = append(rr.Items, res)
				continue
			}

			switch {
			case eff.SkipDuplicates && res.Duplicate:
				res.Status = domain.FileStatusSkipped
			case eff.DryRun:
				res.Status = domain.FileStatusPlanned
			default:
				if err := transfer(p, eff.Copy); err != nil {
					res.Status = domain.FileStatusFailed
					if !errors.As(err, &fatal) {
						fatal = &FatalError{Code: domain.ErrCodeTransferFailed, Op: "传输", Path: p.Src.AbsPath, Err: err}
					}
					res.ErrorCode = fatal.Code
					res.ErrorMsg = fatal.Error()
					rr.ErrorCode = fatal.Code
					rr.ErrorMsg = fatal.Error()
				} else {
					res.Status = domain.FileStatusTransferred
				}
			}

			idx++
			rr.Items = append(rr.Items, res)
			obs.OnFileDone(idx, renames, res)
		}
	}

	out := finish()
	obs.OnPhaseDone("transfer", map[string]any{
		"transferred": out.Summary.Transferred,
		"planned":     out.Summary.Planned,
		"skipped":     out.Summary.Skipped,
		"failed":      out.Summary.Failed,
	}, time.Since(transferStarted))
	return out
}
