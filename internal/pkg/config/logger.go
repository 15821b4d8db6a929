package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoggerOptions 日志配置
type LoggerOptions struct {
	Level     string
	Path      string // 为空只输出到 stdout
	Component string
}

var logLevel = new(slog.LevelVar)

// ParseLevel 未知级别按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLogLevel 运行时调整默认 logger 的级别
func SetLogLevel(level string) {
	logLevel.Set(ParseLevel(level))
}

// SetupLogger 安装默认 logger，返回日志文件的 Closer（未配置文件时为 nil）
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	logLevel.Set(ParseLevel(opts.Level))

	var (
		w      io.Writer = os.Stdout
		closer io.Closer
		err    error
	)
	if opts.Path != "" {
		var f *os.File
		f, err = openLogFile(opts.Path)
		if err == nil {
			w = io.MultiWriter(os.Stdout, f)
			closer = &onceCloser{c: f}
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)

	if err != nil {
		slog.Warn("打开日志文件失败，仅输出到 stdout", "path", opts.Path, "error", err)
	}
	return closer, err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return f, nil
}

type onceCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}
