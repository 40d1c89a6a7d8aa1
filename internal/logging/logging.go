// Package logging 构造整个进程共用的 logrus 日志器。
//
// 日志只写 stderr；stdout 留给运行报告。
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New 按级别与格式构造日志器。jsonFormat 为 false 时使用不带时间戳的文本格式。
func New(w io.Writer, level string, jsonFormat bool) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			FullTimestamp:    false,
		})
	}
	return logger, nil
}

// ParseLevel 接受 logrus 的级别名（大小写不敏感）；空串视为 info。
func ParseLevel(level string) (logrus.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("日志级别无效：%q", level)
	}
	return lvl, nil
}
