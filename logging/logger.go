package logging

import (
	"os"

	"arenasync/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是进程级 SugaredLogger。InitLogger 之前为 Nop，测试中无需初始化。
var Log = zap.NewNop().Sugar()

// InitLogger 按配置把日志写入滚动文件；Console 为 true 时同时输出到 stdout
func InitLogger(cfg config.LogConfig) error {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	})

	encoder := zapcore.NewConsoleEncoder(encoderConfig())
	core := zapcore.NewCore(encoder, file, lvl)
	if cfg.Console {
		core = zapcore.NewTee(core, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lvl))
	}
	Log = zap.New(core, zap.AddCaller()).Sugar()
	return nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	}
}

// SyncLogger 刷新缓冲，进程退出前调用
func SyncLogger() {
	_ = Log.Sync()
}
