package naming

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
)

var placeholderRE = regexp.MustCompile(`\{(\w+)\}`)

// dateExpr 是模式中可识别的日期占位符及其对应的捕获组。
var dateExpr = map[string]string{
	"Y": `(\d{4})`,
	"y": `(\d{2})`,
	"m": `(\d{2})`,
	"d": `(\d{2})`,
	"H": `(\d{2})`,
	"i": `(\d{2})`,
	"s": `(\d{2})`,
}

// DatePattern 从文件名中抽取日期字段，再按 PHP date 风格的模板重新组合。
//
// 例如 pattern "/^{y}-{m}-{d}.{H}-{i}-{s}(.+)$/"、replacement "{Y}-{m}-{d}_{H}-{i}-{s}"
// 会把 "20-01-02 03-04-05.jpg" 改为 "2020-01-02_03-04-05.jpg"。
type DatePattern struct {
	re      *regexp.Regexp
	pattern string
	fields  []string // 按出现顺序排列的占位符（对应捕获组 1..n）
	layout  string   // 去掉花括号后的 PHP date 格式
}

// NewDatePattern 翻译占位符并编译模式；失败返回 *PatternError。
func NewDatePattern(pattern, replacement string) (*DatePattern, error) {
	var fields []string
	expr := placeholderRE.ReplaceAllStringFunc(pattern, func(m string) string {
		name := m[1 : len(m)-1]
		if g, ok := dateExpr[name]; ok {
			fields = append(fields, name)
			return g
		}
		return m
	})
	re, err := CompilePattern(expr)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: errors.Unwrap(err)}
	}
	if re.NumSubexp() < len(fields) {
		return nil, &PatternError{Pattern: pattern, Err: errors.New("日期占位符与捕获组数量不一致")}
	}
	return &DatePattern{
		re:      re,
		pattern: pattern,
		fields:  fields,
		layout:  placeholderRE.ReplaceAllString(replacement, "$1"),
	}, nil
}

// Regexp 返回翻译后的正则（用于枚举阶段的文件名过滤）。
func (p *DatePattern) Regexp() *regexp.Regexp { return p.re }

// TargetName 不匹配时原样返回清理后的文件名。
func (p *DatePattern) TargetName(f domain.File) (string, error) {
	name := cleanBase(f) + f.Ext
	idx := p.re.FindAllStringSubmatchIndex(name, -1)
	if len(idx) == 0 {
		return name, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range idx {
		b.WriteString(name[last:m[0]])
		b.WriteString(p.expand(name, m))
		last = m[1]
	}
	b.WriteString(name[last:])

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", &PatternError{Pattern: p.pattern, Err: errors.New("替换结果为空：" + name)}
	}
	return out, nil
}

// expand 把一次匹配替换为格式化后的日期；若模式在日期占位符之外还有捕获组，
// 追加最后一个捕获组（通常是扩展名部分）。
func (p *DatePattern) expand(name string, m []int) string {
	group := func(i int) string {
		if 2*i+1 >= len(m) || m[2*i] < 0 {
			return ""
		}
		return name[m[2*i]:m[2*i+1]]
	}

	parts := map[string]int{}
	for k, field := range p.fields {
		raw := group(k + 1)
		n, _ := strconv.Atoi(raw)
		if field == "y" || field == "Y" {
			if len(raw) == 2 {
				n = expandYear(n)
			}
			field = "Y"
		}
		parts[field] = n
	}

	t := time.Date(
		valueOr(parts, "Y", 0),
		time.Month(valueOr(parts, "m", 1)),
		valueOr(parts, "d", 1),
		valueOr(parts, "H", 0),
		valueOr(parts, "i", 0),
		valueOr(parts, "s", 0),
		0, time.UTC,
	)

	out := FormatDate(t, p.layout)
	if n := p.re.NumSubexp(); n > len(p.fields) {
		out += group(n)
	}
	return out
}

// expandYear 按 00-69 => 20xx、70-99 => 19xx 补全两位年份。
func expandYear(yy int) int {
	if yy < 70 {
		return 2000 + yy
	}
	return 1900 + yy
}

func valueOr(m map[string]int, k string, def int) int {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}
