package domain

import (
	"encoding/json"
	"time"
)

const (
	FileStatusPending     = "pending"
	FileStatusPlanned     = "planned" // dry-run：会执行但未执行
	FileStatusTransferred = "transferred"
	FileStatusSkipped     = "skipped_duplicate"
	FileStatusFailed      = "failed"
)

const (
	ErrCodePatternInvalid     = "pattern_invalid"
	ErrCodeScanFailed         = "scan_failed"
	ErrCodeTargetNotWritable  = "target_not_writable"
	ErrCodeDirNotCreated      = "dir_not_created"
	ErrCodeSourceNotFile      = "source_not_file"
	ErrCodeTransferFailed     = "transfer_failed"
	ErrCodeConfigInvalid      = "config_invalid"
	ErrCodeConfigMissingTgt   = "config_missing_target"
	ErrCodeConfigMissingRepl  = "config_missing_replacement"
	ErrCodeConfigNotFound     = "config_not_found"
	ErrCodeConfirmationDenied = "confirmation_denied"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	Command string `json:"command"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	DryRun  bool   `json:"dry_run"`
	Copy    bool   `json:"copy"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []FileResult  `json:"items"`

	// ErrorCode/ErrorMsg 描述整次运行的致命错误（配置错误、扫描失败、传输中止）；成功时为空。
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

type ReportSummary struct {
	Files       int `json:"files"`
	Groups      int `json:"groups"`
	Renames     int `json:"renames"`
	Duplicates  int `json:"duplicates"`
	Transferred int `json:"transferred"`
	Planned     int `json:"planned"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

type FileResult struct {
	Src       string `json:"src"`
	Dst       string `json:"dst"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 由 items 计算 summary 中的逐文件计数（Files/Groups 由调用方在扫描/分组后直接写入）
//
// items 保持 "组 -> 成员" 的执行顺序，不重新排序。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	s := ReportSummary{
		Files:   r.Summary.Files,
		Groups:  r.Summary.Groups,
		Renames: len(r.Items),
	}
	for _, it := range r.Items {
		if it.Duplicate {
			s.Duplicates++
		}
		switch it.Status {
		case FileStatusTransferred:
			s.Transferred++
		case FileStatusPlanned:
			s.Planned++
		case FileStatusSkipped:
			s.Skipped++
		case FileStatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// OK 表示整次运行没有致命错误。
func (r *RunReport) OK() bool {
	return r.ErrorCode == "" && r.Summary.Failed == 0
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
