package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLevel(logLevel string) zapcore.Level {
	switch logLevel {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// NewLogger 根据日志级别和编码构建日志器；json 编码使用生产配置，其余使用开发配置
func NewLogger(logLevel, encoding string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if encoding == "json" {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level.SetLevel(parseLevel(logLevel))

	lgr, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("构建日志器失败: %w", err)
	}

	return lgr, nil
}

// InitLogger 构建日志器并替换全局的 zap.L() 和 zap.S()
func InitLogger(logLevel, encoding string) {
	lgr, err := NewLogger(logLevel, encoding)
	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(lgr)
}
