// Package naming 计算每个源文件的目标文件名（TargetNameStrategy）。
//
// 所有策略在计算前都会先剥离已有的消歧后缀，保证对上一次输出重跑时结果稳定。
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

// ErrSkip 表示该文件不参与本次批次（不是错误：例如没有 EXIF 拍摄时间）。
var ErrSkip = errors.New("naming: skip")

// Namer 为源文件生成目标文件名（含扩展名，不含目录）。
//
// 返回 ErrSkip（可被包装）表示静默跳过；其他错误由上层报告后同样跳过该文件。
type Namer interface {
	TargetName(f domain.File) (string, error)
}

// Preparer 由需要先看到整批文件的策略实现（例如 EXIF 模式下同名不同扩展名的文件共享拍摄时间）。
type Preparer interface {
	Prepare(files []domain.File)
}

// PatternError 表示用户提供的模式无法编译或替换失败。
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("模式错误：%v；请检查模式语法 %q，可先使用 --dry-run 验证后再执行", e.Err, e.Pattern)
}

func (e *PatternError) Unwrap() error { return e.Err }

// IsPatternError 判断 err 是否为 PatternError。
func IsPatternError(err error) bool {
	var e *PatternError
	return errors.As(err, &e)
}

// cleanBase 返回剥离消歧后缀后的 base。
func cleanBase(f domain.File) string {
	return domain.StripDuplicateSuffix(f.Base)
}

// Inherit 保留原文件名，只去掉消歧后缀（用于只关心去重的模式）。
type Inherit struct{}

func (Inherit) TargetName(f domain.File) (string, error) {
	return cleanBase(f) + f.Ext, nil
}

// LowerCase 在 Inherit 的基础上整体转为小写（Unicode 全量小写，与 locale 无关）。
//
// 先转小写再剥离后缀：大写形式的分隔符（"-DUPLICATE-001"）也会被规范化，保证 L(L(x)) == L(x)。
type LowerCase struct{}

func (LowerCase) TargetName(f domain.File) (string, error) {
	base := domain.StripDuplicateSuffix(strings.ToLower(f.Base))
	return base + strings.ToLower(f.Ext), nil
}

var sizeSuffixRE = regexp.MustCompile(`-\d{9}$`)

// Filesize 把文件大小（9 位补零）追加到 base 后，例如 "IMG_1-000123456.jpg"。
// 重跑时会先去掉已有的大小后缀；空文件跳过。
type Filesize struct{}

func (Filesize) TargetName(f domain.File) (string, error) {
	if f.Size <= 0 {
		return "", fmt.Errorf("%w: 空文件 %s", ErrSkip, f.AbsPath)
	}
	base := sizeSuffixRE.ReplaceAllString(cleanBase(f), "")
	return fmt.Sprintf("%s-%09d%s", base, f.Size, f.Ext), nil
}
