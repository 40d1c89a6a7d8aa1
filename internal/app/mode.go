package app

import (
	"fmt"

	"github.com/John-Robertt/PhotoRenamer/internal/config"
	"github.com/John-Robertt/PhotoRenamer/internal/dupkey"
	"github.com/John-Robertt/PhotoRenamer/internal/infra/exifx"
	"github.com/John-Robertt/PhotoRenamer/internal/naming"
	"github.com/John-Robertt/PhotoRenamer/internal/scan"
)

// Mode 把一个命令绑定到具体的枚举过滤器、目标名策略与 key 策略。
type Mode struct {
	Name   string
	Filter scan.Filter
	Namer  naming.Namer
	Keyer  dupkey.Keyer

	// UseSourceExt 为 true 时，组内每个成员保留自己的扩展名。
	UseSourceExt bool
}

// BuildMode 根据最终配置构造 Mode；模式编译失败返回 *naming.PatternError。
func BuildMode(eff config.EffectiveConfig, exif exifx.Reader) (Mode, error) {
	m := Mode{Name: eff.Command}
	switch eff.Command {
	case config.CmdLower:
		m.Filter = scan.HasUppercase()
		m.Namer = naming.LowerCase{}
		m.Keyer = dupkey.TargetPathname{}

	case config.CmdPattern:
		p, err := naming.NewPattern(eff.Pattern, eff.Replacement)
		if err != nil {
			return Mode{}, err
		}
		m.Filter = scan.MatchName(p.Regexp())
		m.Namer = p
		m.Keyer = dupkey.TargetPathname{}

	case config.CmdDatePattern:
		p, err := naming.NewDatePattern(eff.Pattern, eff.Replacement)
		if err != nil {
			return Mode{}, err
		}
		m.Filter = scan.MatchName(p.Regexp())
		m.Namer = p
		m.Keyer = dupkey.TargetPathname{}

	case config.CmdExifDate:
		m.Namer = naming.NewExifDate(eff.Pattern, exif)
		m.Keyer = dupkey.TargetFilename{}
		m.UseSourceExt = true

	case config.CmdHash:
		m.Namer = naming.Inherit{}
		m.Keyer = dupkey.ContentHash{}

	case config.CmdFilesize:
		m.Namer = naming.Filesize{}
		m.Keyer = dupkey.TargetPathname{}

	default:
		return Mode{}, fmt.Errorf("未知命令：%q", eff.Command)
	}
	return m, nil
}
