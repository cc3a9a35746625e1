package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"encoding-service/pkg/config"
)

// Service 日志服务，封装logrus供全局使用
type Service struct {
	entry *logrus.Logger
}

var (
	globalMu     sync.RWMutex
	globalLogger *Service
)

// NewLogger 根据配置创建日志服务
func NewLogger(cfg *config.Config) *Service {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Log.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetOutput(resolveOutput(cfg.Log))

	return &Service{entry: l}
}

func resolveOutput(cfg config.LogConfig) io.Writer {
	switch cfg.Output {
	case "file":
		if cfg.Filename != "" {
			if f, err := os.OpenFile(cfg.Filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				return f
			}
		}
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}

// Close 释放文件输出句柄
func (s *Service) Close() {
	if s == nil || s.entry == nil {
		return
	}
	if f, ok := s.entry.Out.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		_ = f.Close()
	}
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(s *Service) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = s
}

func std() *logrus.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger.entry
	}
	return logrus.StandardLogger()
}

// Debug 带字段的Debug日志
func Debug(msg string, fields map[string]interface{}) {
	std().WithFields(fields).Debug(msg)
}

// Info 带字段的Info日志
func Info(msg string, fields map[string]interface{}) {
	std().WithFields(fields).Info(msg)
}

// Warn 带字段的Warn日志
func Warn(msg string, fields map[string]interface{}) {
	std().WithFields(fields).Warn(msg)
}

// Error 带字段的Error日志
func Error(msg string, fields map[string]interface{}) {
	std().WithFields(fields).Error(msg)
}

func Debugf(format string, args ...interface{}) { std().Debugf(format, args...) }

func Infof(format string, args ...interface{}) { std().Infof(format, args...) }

func Warnf(format string, args ...interface{}) { std().Warnf(format, args...) }

func Errorf(format string, args ...interface{}) { std().Errorf(format, args...) }

// Fatal 打印日志后退出进程
func Fatal(msg string) { std().Fatal(msg) }
