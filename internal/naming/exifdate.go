package naming

import (
	"errors"
	"fmt"
	"time"

	"github.com/John-Robertt/PhotoRenamer/internal/domain"
	"github.com/John-Robertt/PhotoRenamer/internal/infra/exifx"
)

// DefaultExifLayout 是 rename:exifdate 的默认目标文件名格式（PHP date 风格）。
const DefaultExifLayout = "Y-m-d_H-i-s"

type capture struct {
	at     time.Time
	subSec bool
	err    error
}

// ExifDate 以 EXIF 拍摄时间命名文件，保留源文件扩展名。
//
// 同目录下去掉扩展名后同名的文件（例如 Live Photo 的 IMG_1.HEIC 与 IMG_1.MOV）
// 共享第一个可读出拍摄时间的文件的时间。
//
// 拍摄时间带 SubSecTimeOriginal 时，文件名在 layout 之后追加 "-" 和三位毫秒，
// 避免连拍照片在同一秒内全部落进 -duplicate-NNN。
type ExifDate struct {
	layout string
	reader exifx.Reader

	byStem map[string]capture
}

// NewExifDate 创建 EXIF 命名策略；layout 为空时使用 DefaultExifLayout。
func NewExifDate(layout string, r exifx.Reader) *ExifDate {
	if layout == "" {
		layout = DefaultExifLayout
	}
	if r == nil {
		r = exifx.FileReader{}
	}
	return &ExifDate{layout: layout, reader: r}
}

// Prepare 为整批文件建立 "stem -> 拍摄时间" 索引。
// 每个 stem 只读到第一个成功的文件为止。
func (n *ExifDate) Prepare(files []domain.File) {
	n.byStem = make(map[string]capture, len(files))
	for _, f := range files {
		stem := f.Stem()
		prev, seen := n.byStem[stem]
		if seen && prev.err == nil {
			continue
		}
		c := n.read(f.AbsPath)
		if seen && c.err != nil {
			// 保留第一个失败原因。
			continue
		}
		n.byStem[stem] = c
	}
}

func (n *ExifDate) read(path string) capture {
	raw, err := n.reader.ReadCapture(path)
	if err != nil {
		return capture{err: err}
	}
	at, err := raw.Time()
	if err != nil {
		return capture{err: err}
	}
	return capture{at: at, subSec: raw.HasSubSec()}
}

func (n *ExifDate) TargetName(f domain.File) (string, error) {
	c, ok := n.byStem[f.Stem()]
	if !ok {
		c = n.read(f.AbsPath)
	}
	if c.err != nil {
		if errors.Is(c.err, exifx.ErrNoDate) {
			return "", fmt.Errorf("%w: %v", ErrSkip, c.err)
		}
		return "", c.err
	}
	layout := n.layout
	if c.subSec {
		layout += "-v"
	}
	return FormatDate(c.at, layout) + f.Ext, nil
}
