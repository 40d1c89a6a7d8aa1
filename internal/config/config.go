package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段/目录不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingTarget 表示 --copy / --skip-duplicates 缺少显式目标目录。
	ErrCodeMissingTarget = "config_missing_target"
	// ErrCodeMissingReplacement 表示模式替换类命令的 replacement 为空。
	ErrCodeMissingReplacement = "config_missing_replacement"
)

// FileName 是源目录下可选配置文件的固定文件名。
const FileName = "renamer.json"

// 命令名（与子命令一一对应）。
const (
	CmdLower       = "rename:lower"
	CmdPattern     = "rename:pattern"
	CmdDatePattern = "rename:date-pattern"
	CmdExifDate    = "rename:exifdate"
	CmdHash        = "rename:hash"
	CmdFilesize    = "rename:duplicate:filesize"
)

// 各命令的内置默认值。
const (
	DefaultPattern         = `/^(.+)(jpeg)$/`
	DefaultReplacement     = `$1jpg`
	DefaultDatePattern     = `/^{y}-{m}-{d}.{H}-{i}-{s}(.+)$/`
	DefaultDateReplacement = `{Y}-{m}-{d}_{H}-{i}-{s}`
	DefaultExifPattern     = `Y-m-d_H-i-s`
	DefaultLogLevel        = "info"
)

// CLIArgs 是命令行输入，并保留 "是否显式指定" 的信息，保证 CLI 能覆盖配置文件（包括 --copy=false）。
type CLIArgs struct {
	Command string

	Source string
	Target string

	ConfigPath string

	DryRun bool
	Yes    bool

	Copy    bool
	CopySet bool

	SkipDuplicates    bool
	SkipDuplicatesSet bool

	Pattern    string
	PatternSet bool

	Replacement    string
	ReplacementSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 renamer.json 的解析结构。
type FileConfig struct {
	ExcludeDirs     []string `json:"exclude_dirs"`
	Copy            *bool    `json:"copy"`
	SkipDuplicates  *bool    `json:"skip_duplicates"`
	Pattern         string   `json:"pattern"`
	Replacement     *string  `json:"replacement"`
	DatePattern     string   `json:"date_pattern"`
	DateReplacement *string  `json:"date_replacement"`
	ExifPattern     string   `json:"exif_pattern"`
	LogLevel        string   `json:"log_level"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Command string

	Source string
	Target string
	// TargetSet 表示目标目录由用户显式给出（否则 Target == Source）。
	TargetSet bool

	DryRun         bool
	Yes            bool
	Copy           bool
	SkipDuplicates bool

	// Pattern/Replacement 按命令解释：正则替换、日期模式，或 EXIF 模式下的目标文件名格式（Replacement 为空）。
	Pattern     string
	Replacement string

	ExcludeDirs []string
	LogLevel    string

	// ConfigFile 是实际读取到的配置文件；为空表示没有配置文件。
	ConfigFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingTarget:
		return fmt.Sprintf("%s：%v；请通过第二个参数指定目标目录", e.Code, e.Err)
	case ErrCodeMissingReplacement:
		return fmt.Sprintf("%s：替换模板不能为空", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：%q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：%q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试读取 <source>/renamer.json（可选）
//
// 覆盖优先级：CLI > 配置文件 > 内置默认。
// 校验在触碰任何文件之前完成。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Source) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cli.Source, Err: errors.New("缺少源目录")}
	}
	source := absCleanFrom(cwdAbs, cli.Source)
	if fi, err := os.Stat(source); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: source, Err: err}
	} else if !fi.IsDir() {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: source, Err: errors.New("源路径不是目录")}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(source, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}
	if !exists {
		cfgPath = ""
	}

	return merge(cwdAbs, source, cli, fc, cfgPath)
}

func merge(cwdAbs, source string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	eff := EffectiveConfig{
		Command:    cli.Command,
		Source:     source,
		Target:     source,
		DryRun:     cli.DryRun,
		Yes:        cli.Yes,
		ConfigFile: cfgPath,
	}
	if strings.TrimSpace(cli.Target) != "" {
		eff.Target = absCleanFrom(cwdAbs, cli.Target)
		eff.TargetSet = true
	}

	eff.Copy = pickBool(cli.CopySet, cli.Copy, fc.Copy)
	eff.SkipDuplicates = pickBool(cli.SkipDuplicatesSet, cli.SkipDuplicates, fc.SkipDuplicates)

	if eff.Copy && !eff.TargetSet {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingTarget, Path: source, Err: errors.New("复制文件（--copy）需要指定目标目录")}
	}
	if eff.SkipDuplicates && !eff.TargetSet {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingTarget, Path: source, Err: errors.New("跳过重复文件（--skip-duplicates）需要指定目标目录")}
	}
	if eff.TargetSet {
		if fi, err := os.Stat(eff.Target); err == nil && !fi.IsDir() {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: eff.Target, Err: errors.New("目标路径不是目录")}
		}
	}

	switch cli.Command {
	case CmdPattern:
		eff.Pattern = pickString(cli.PatternSet, cli.Pattern, fc.Pattern, DefaultPattern)
		eff.Replacement = pickStringPtr(cli.ReplacementSet, cli.Replacement, fc.Replacement, DefaultReplacement)
		if eff.Replacement == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeMissingReplacement, Path: cfgPath}
		}
	case CmdDatePattern:
		eff.Pattern = pickString(cli.PatternSet, cli.Pattern, fc.DatePattern, DefaultDatePattern)
		eff.Replacement = pickStringPtr(cli.ReplacementSet, cli.Replacement, fc.DateReplacement, DefaultDateReplacement)
		if eff.Replacement == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeMissingReplacement, Path: cfgPath}
		}
	case CmdExifDate:
		eff.Pattern = pickString(cli.PatternSet, cli.Pattern, fc.ExifPattern, DefaultExifPattern)
	case CmdLower, CmdHash, CmdFilesize:
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cli.Command, Err: errors.New("未知命令")}
	}
	switch cli.Command {
	case CmdPattern, CmdDatePattern, CmdExifDate:
		if strings.TrimSpace(eff.Pattern) == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cli.Command, Err: errors.New("模式不能为空")}
		}
	}

	eff.LogLevel = pickString(cli.LogLevelSet, cli.LogLevel, fc.LogLevel, DefaultLogLevel)

	eff.ExcludeDirs = append([]string(nil), fc.ExcludeDirs...)
	// 目标目录位于源目录之内时，不再枚举目标目录（避免重跑时把输出当成输入）。
	if eff.TargetSet && eff.Target != source {
		if rel, err := filepath.Rel(source, eff.Target); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			eff.ExcludeDirs = append(eff.ExcludeDirs, rel)
		}
	}
	return eff, nil
}

func pickBool(set, cli bool, file *bool) bool {
	if set {
		return cli
	}
	if file != nil {
		return *file
	}
	return false
}

func pickString(set bool, cli, file, def string) string {
	if set {
		return cli
	}
	if strings.TrimSpace(file) != "" {
		return file
	}
	return def
}

// pickStringPtr 与 pickString 相同，但配置文件中显式写出的空串也生效（用于 replacement 校验）。
func pickStringPtr(set bool, cli string, file *string, def string) string {
	if set {
		return cli
	}
	if file != nil {
		return *file
	}
	return def
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
