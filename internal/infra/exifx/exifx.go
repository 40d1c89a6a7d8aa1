package exifx

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoDate 表示文件没有可用的 DateTimeOriginal（无 EXIF、字段缺失或无法解析）。
var ErrNoDate = errors.New("exif: no DateTimeOriginal")

// Capture 是从 EXIF 中读出的原始拍摄时间字段（未解析）。
type Capture struct {
	DateTimeOriginal   string // "2024:05:01 10:00:00"
	SubSecTimeOriginal string // "123"；没有时为空
}

// Reader 是 EXIF 读取的抽象，便于测试替换。
type Reader interface {
	ReadCapture(path string) (Capture, error)
}

// FileReader 通过 goexif 从文件中读取 EXIF。
type FileReader struct{}

// ReadCapture 读取 path 的 DateTimeOriginal / SubSecTimeOriginal。
// 文件不是可解析的 EXIF 容器、或没有 DateTimeOriginal 时返回 ErrNoDate（包装原因）。
func (FileReader) ReadCapture(path string) (Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Capture{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %s: %v", ErrNoDate, path, err)
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %s", ErrNoDate, path)
	}
	dt, err := stringVal(tag)
	if err != nil || dt == "" {
		return Capture{}, fmt.Errorf("%w: %s", ErrNoDate, path)
	}

	c := Capture{DateTimeOriginal: dt}
	if tag, err := x.Get(exif.SubSecTimeOriginal); err == nil {
		if s, err := stringVal(tag); err == nil {
			c.SubSecTimeOriginal = s
		}
	}
	return c, nil
}

func stringVal(tag *tiff.Tag) (string, error) {
	s, err := tag.StringVal()
	if err != nil {
		return "", err
	}
	// 部分相机会写入结尾 NUL 或空格。
	return strings.TrimRight(strings.TrimSpace(s), "\x00"), nil
}

var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02T15:04:05",
	"2006-01-02T15:04:05",
	"2006:01:02",
	"2006-01-02",
}

// Time 把 Capture 解析为时间点，并叠加亚秒字段：
// - 亚秒不超过 4 位：按毫秒叠加（"123" => +123ms）
// - 超过 4 位：按微秒叠加（"123456" => +123456µs）
//
// 结果使用 UTC 表示"墙上时间"，不做时区换算（EXIF 本身不带时区）。
func (c Capture) Time() (time.Time, error) {
	raw := strings.TrimSpace(c.DateTimeOriginal)
	if raw == "" {
		return time.Time{}, ErrNoDate
	}

	var (
		t   time.Time
		err error
	)
	for _, layout := range dateLayouts {
		t, err = time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 无法解析 %q", ErrNoDate, raw)
	}

	sub := strings.TrimSpace(c.SubSecTimeOriginal)
	if sub == "" {
		return t, nil
	}
	n, err := strconv.Atoi(sub)
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("%w: 无法解析亚秒 %q", ErrNoDate, sub)
	}
	if len(sub) > 4 {
		return t.Add(time.Duration(n) * time.Microsecond), nil
	}
	return t.Add(time.Duration(n) * time.Millisecond), nil
}

// HasSubSec 报告是否带有亚秒字段。
func (c Capture) HasSubSec() bool {
	return strings.TrimSpace(c.SubSecTimeOriginal) != ""
}
