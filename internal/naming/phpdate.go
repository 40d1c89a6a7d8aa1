package naming

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDate 按 PHP date() 的格式字符格式化时间，例如 "Y-m-d_H-i-s"。
//
// 反斜杠转义下一个字符；未识别的字符原样输出。
func FormatDate(t time.Time, layout string) string {
	var b strings.Builder
	rs := []rune(layout)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		if c == '\\' {
			if i+1 < len(rs) {
				i++
				b.WriteRune(rs[i])
			}
			continue
		}
		b.WriteString(formatChar(t, c))
	}
	return b.String()
}

func formatChar(t time.Time, c rune) string {
	switch c {
	// 日
	case 'd':
		return fmt.Sprintf("%02d", t.Day())
	case 'D':
		return t.Format("Mon")
	case 'j':
		return strconv.Itoa(t.Day())
	case 'l':
		return t.Weekday().String()
	case 'N':
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return strconv.Itoa(wd)
	case 'w':
		return strconv.Itoa(int(t.Weekday()))
	case 'z':
		return strconv.Itoa(t.YearDay() - 1)

	// 周 / 月
	case 'W':
		_, w := t.ISOWeek()
		return fmt.Sprintf("%02d", w)
	case 'F':
		return t.Month().String()
	case 'm':
		return fmt.Sprintf("%02d", int(t.Month()))
	case 'M':
		return t.Format("Jan")
	case 'n':
		return strconv.Itoa(int(t.Month()))
	case 't':
		return strconv.Itoa(daysIn(t.Year(), t.Month()))

	// 年
	case 'L':
		if daysIn(t.Year(), time.February) == 29 {
			return "1"
		}
		return "0"
	case 'o':
		y, _ := t.ISOWeek()
		return strconv.Itoa(y)
	case 'Y':
		y := t.Year()
		if y < 0 {
			return fmt.Sprintf("-%04d", -y)
		}
		return fmt.Sprintf("%04d", y)
	case 'y':
		return fmt.Sprintf("%02d", t.Year()%100)

	// 时间
	case 'a':
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case 'A':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'g':
		return strconv.Itoa(hour12(t))
	case 'G':
		return strconv.Itoa(t.Hour())
	case 'h':
		return fmt.Sprintf("%02d", hour12(t))
	case 'H':
		return fmt.Sprintf("%02d", t.Hour())
	case 'i':
		return fmt.Sprintf("%02d", t.Minute())
	case 's':
		return fmt.Sprintf("%02d", t.Second())
	case 'u':
		return fmt.Sprintf("%06d", t.Nanosecond()/1000)
	case 'v':
		return fmt.Sprintf("%03d", t.Nanosecond()/1000000)

	// 时区
	case 'e':
		return t.Location().String()
	case 'T':
		return t.Format("MST")
	case 'P':
		return t.Format("-07:00")
	case 'O':
		return t.Format("-0700")
	case 'Z':
		_, off := t.Zone()
		return strconv.Itoa(off)

	// 完整日期
	case 'c':
		return t.Format("2006-01-02T15:04:05-07:00")
	case 'U':
		return strconv.FormatInt(t.Unix(), 10)
	}
	return string(c)
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
