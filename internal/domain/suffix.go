package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DuplicateSeparator 是消歧后缀的固定分隔符，例如 "IMG_0001-duplicate-002.jpg"。
const DuplicateSeparator = "-duplicate-"

// 生成时固定 3 位补零；剥离时接受 3 位及以上，保证计数超过 999 后重跑仍然幂等。
var duplicateSuffixRE = regexp.MustCompile(regexp.QuoteMeta(DuplicateSeparator) + `\d{3,}$`)

// WithDuplicateSuffix 在 base（不含扩展名）后追加第 n 个消歧后缀。
func WithDuplicateSuffix(base string, n int) string {
	return fmt.Sprintf("%s%s%03d", base, DuplicateSeparator, n)
}

// StripDuplicateSuffix 去掉 base 末尾已有的消歧后缀；没有后缀时原样返回。
func StripDuplicateSuffix(base string) string {
	return duplicateSuffixRE.ReplaceAllString(base, "")
}

// IsDuplicateName 判断文件名是否带有消歧分隔符（用于 "possible duplicates" 统计与 skip-duplicates）。
func IsDuplicateName(name string) bool {
	return strings.Contains(name, DuplicateSeparator)
}
