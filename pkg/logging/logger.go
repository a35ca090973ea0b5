package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultService はログの service フィールドに出力するサービス名。
const DefaultService = "emerald_herald"

// timeLayout はログのタイムスタンプ形式。秒未満は出力しない。
const timeLayout = "2006-01-02T15:04:05Z07:00"

// Config はロガーの設定。
type Config struct {
	// Level はログレベル（debug, info, warn, error）。
	Level string
	// Format は出力形式（json または console）。
	Format string
	// Service は service フィールドに出力するサービス名。
	Service string
}

// DefaultConfig はデフォルトのロガー設定を返す。
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "json",
		Service: DefaultService,
	}
}

// New は設定からzapロガーを生成する。
// ログレベルが解釈できない場合はエラーを返す。
func New(cfg Config) (*zap.Logger, error) {
	return build(cfg, zapcore.AddSync(os.Stdout))
}

// build は指定された出力先に書き込むロガーを生成する。
func build(cfg Config, out zapcore.WriteSyncer) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("ログレベルの解釈に失敗: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("未対応のログ形式: %q", cfg.Format)
	}

	service := cfg.Service
	if service == "" {
		service = DefaultService
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	core := zapcore.NewCore(encoder, out, level)
	return zap.New(core).Named("herald").With(
		zap.String("hostname", hostname),
		zap.String("service", service),
	), nil
}
