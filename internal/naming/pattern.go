package naming

import (
	"errors"
	"regexp"
	"strings"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

// CompilePattern 编译用户提供的正则。
//
// 兼容 "/expr/flags" 的定界符写法：去掉定界符，并把 i/m/s/U 标志转成 RE2 的内联标志；
// 其他标志（x/u/D）在 RE2 中没有对应语义，忽略。
func CompilePattern(expr string) (*regexp.Regexp, error) {
	body, flags := stripDelimiters(expr)
	if flags != "" {
		body = "(?" + flags + ")" + body
	}
	re, err := regexp.Compile(body)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}
	return re, nil
}

func stripDelimiters(expr string) (body, flags string) {
	if len(expr) < 2 {
		return expr, ""
	}
	delim := expr[0]
	if !strings.ContainsRune("/#~!@%|", rune(delim)) {
		return expr, ""
	}
	end := strings.LastIndexByte(expr, delim)
	if end <= 0 {
		return expr, ""
	}
	var fl strings.Builder
	for _, c := range expr[end+1:] {
		switch c {
		case 'i', 'm', 's', 'U':
			fl.WriteRune(c)
		case 'x', 'u', 'D':
		default:
			// 结尾不是合法标志：不是定界符写法，原样使用。
			return expr, ""
		}
	}
	return expr[1:end], fl.String()
}

var backrefRE = regexp.MustCompile(`(?:\\|\$)(\d{1,2})`)

// normalizeReplacement 把 "\1" / "$1" 形式的反向引用统一成 Go 的 "${1}"，
// 避免 "$1jpg" 被 Go 解释成名为 "1jpg" 的分组。
func normalizeReplacement(repl string) string {
	return backrefRE.ReplaceAllString(repl, `$${$1}`)
}

// Pattern 对清理后的文件名（base + ext）做正则替换。
type Pattern struct {
	re          *regexp.Regexp
	pattern     string
	replacement string
}

// NewPattern 编译 pattern；编译失败返回 *PatternError。
func NewPattern(pattern, replacement string) (*Pattern, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re, pattern: pattern, replacement: normalizeReplacement(replacement)}, nil
}

// Regexp 返回编译后的正则（用于枚举阶段的文件名过滤）。
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// TargetName 不匹配时返回原（已清理的）文件名，交由上层按 "无需移动" 处理。
func (p *Pattern) TargetName(f domain.File) (string, error) {
	name := cleanBase(f) + f.Ext
	out := p.re.ReplaceAllString(name, p.replacement)
	if strings.TrimSpace(out) == "" {
		return "", &PatternError{Pattern: p.pattern, Err: errors.New("替换结果为空：" + name)}
	}
	return out, nil
}
