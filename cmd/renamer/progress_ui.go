package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/PhotoRenamer/internal/app"
	"github.com/John-Robertt/PhotoRenamer/internal/app/run"
	"github.com/John-Robertt/PhotoRenamer/internal/config"
	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

var (
	_ run.Observer = (*logObserver)(nil)
	_ run.Observer = (*progressUI)(nil)
)

// logObserver 把 run 事件转成结构化日志（stderr），用于非交互环境。
type logObserver struct {
	log *logrus.Logger
}

func newLogObserver(log *logrus.Logger) *logObserver {
	return &logObserver{log: log}
}

func (o *logObserver) OnStart(eff config.EffectiveConfig) {
	o.log.WithFields(logrus.Fields{
		"command":         eff.Command,
		"source":          eff.Source,
		"target":          eff.Target,
		"mode":            modeName(eff),
		"skip_duplicates": eff.SkipDuplicates,
		"exclude_dirs":    formatStringListJSON(eff.ExcludeDirs),
	}).Info("开始处理")
}

func (o *logObserver) OnProgress(string, int, int) {}

func (o *logObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	f := logrus.Fields{"phase": name, "took": formatShortDuration(dur)}
	for k, v := range fields {
		f[k] = v
	}
	o.log.WithFields(f).Debug("阶段完成")
}

func (o *logObserver) OnSkip(f domain.File, err error) {
	entry := o.log.WithField("src", f.AbsPath)
	if app.IsSilentSkip(err) {
		entry.WithError(err).Debug("跳过")
		return
	}
	entry.WithError(err).Warn("跳过")
}

func (o *logObserver) OnFileDone(idx, total int, res domain.FileResult) {
	entry := o.log.WithFields(logrus.Fields{
		"src":    res.Src,
		"dst":    res.Dst,
		"status": res.Status,
	})
	if res.Duplicate {
		entry = entry.WithField("duplicate", true)
	}
	switch res.Status {
	case domain.FileStatusFailed:
		entry.WithField("error_code", res.ErrorCode).Error(truncate(res.ErrorMsg, 200))
	default:
		entry.Debugf("[%d/%d] %s", idx, total, statusLabel(res.Status))
	}
}

// progressUI 是交互终端下的进度输出：每个阶段一根进度条，其余事件仍走日志。
//
// 所有输出写到 stderr，不污染 stdout。
type progressUI struct {
	*logObserver

	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	phase     string
	bar       *progressbar.ProgressBar

	ok   int
	skip int
	fail int
}

func newProgressUI(w io.Writer, log *logrus.Logger) *progressUI {
	return &progressUI{logObserver: newLogObserver(log), w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	title := color.New(color.Bold)
	title.Fprintf(p.w, "[%s] %s (%s)\n", now.Format("15:04:05"), eff.Command, modeName(eff))
	fmt.Fprintf(p.w, "  source: %s\n", eff.Source)
	fmt.Fprintf(p.w, "  target: %s\n", eff.Target)
	if eff.Pattern != "" {
		fmt.Fprintf(p.w, "  pattern: %s\n", truncate(eff.Pattern, 120))
	}
	if eff.Replacement != "" {
		fmt.Fprintf(p.w, "  replacement: %s\n", truncate(eff.Replacement, 120))
	}
	fmt.Fprintf(p.w, "  skip_duplicates: %s\n", onOff(eff.SkipDuplicates))
	fmt.Fprintf(p.w, "  exclude_dirs: %s\n", formatStringListJSON(eff.ExcludeDirs))
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnProgress(phase string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.barLocked(phase, total).Set(done)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishBarLocked()
	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case "group":
		fmt.Fprintf(p.w, "分组: groups=%d dropped=%d (%s)\n",
			intField(fields, "groups"), intField(fields, "dropped"), formatShortDuration(dur),
		)
	case "plan":
		fmt.Fprintf(p.w, "规划: renames=%d duplicates=%d (%s)\n",
			intField(fields, "renames"), intField(fields, "duplicates"), formatShortDuration(dur),
		)
	case "transfer":
		fmt.Fprintf(p.w, "传输: ok=%d skip=%d fail=%d elapsed=%s\n",
			p.ok, p.skip, p.fail, formatElapsed(time.Since(p.startedAt)),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnSkip(f domain.File, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Clear()
	}
	p.logObserver.OnSkip(f, err)
}

func (p *progressUI) OnFileDone(idx, total int, res domain.FileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch res.Status {
	case domain.FileStatusTransferred, domain.FileStatusPlanned:
		p.ok++
	case domain.FileStatusSkipped:
		p.skip++
	case domain.FileStatusFailed:
		p.fail++
		p.finishBarLocked()
		color.New(color.FgRed).Fprintf(p.w, "[%d/%d] %s %s: %s\n",
			idx, total, statusLabel(res.Status), res.ErrorCode, truncate(res.ErrorMsg, 160),
		)
		return
	}
	_ = p.barLocked("transfer", total).Set(idx)
}

func (p *progressUI) barLocked(phase string, total int) *progressbar.ProgressBar {
	if p.bar != nil && p.phase == phase {
		return p.bar
	}
	p.finishBarLocked()
	p.phase = phase
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(phaseLabel(phase)),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
	return p.bar
}

func (p *progressUI) finishBarLocked() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
	p.phase = ""
}

func phaseLabel(phase string) string {
	switch phase {
	case "scan":
		return "扫描"
	case "transfer":
		return "传输"
	default:
		return phase
	}
}

func statusLabel(status string) string {
	switch status {
	case domain.FileStatusTransferred:
		return "OK"
	case domain.FileStatusPlanned:
		return "PLAN"
	case domain.FileStatusSkipped:
		return "SKIP"
	case domain.FileStatusFailed:
		return "FAIL"
	default:
		return strings.ToUpper(status)
	}
}

func modeName(eff config.EffectiveConfig) string {
	op := "move"
	if eff.Copy {
		op = "copy"
	}
	if eff.DryRun {
		return "dry-run " + op
	}
	return op
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:runeCut(s, max)]
	}
	return s[:runeCut(s, max-3)] + "..."
}

// runeCut 返回不超过 n 的最大字节下标，且落在 UTF-8 字符边界上。
func runeCut(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
