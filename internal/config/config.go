package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/nao1215/herald/pkg/logging"
)

// 環境変数名。
const (
	EnvPort            = "PORT"
	EnvApplications    = "APPLICATIONS"
	EnvGuardianURL     = "GUARDIAN_URL"
	EnvUpstreamTimeout = "UPSTREAM_TIMEOUT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
)

// Config はプロキシの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// Applications はアプリケーション定義のJSON配列（未解釈）。
	Applications string
	// GuardianURL は認可サービスのURL。
	GuardianURL string
	// UpstreamTimeout は外部呼び出しのタイムアウト。0は無制限。
	UpstreamTimeout time.Duration
	// Log はロガーの設定。
	Log logging.Config
	// Warnings は読み込み時に発生した警告。
	Warnings []string
}

// LookupFunc は環境変数の取得関数。os.LookupEnv と同じシグネチャを持つ。
type LookupFunc func(key string) (string, bool)

// FromEnv はプロセスの環境変数から設定を読み込む。
func FromEnv() *Config {
	return Load(os.LookupEnv)
}

// Load は lookup から設定を読み込む。失敗することはない。
func Load(lookup LookupFunc) *Config {
	cfg := &Config{
		Port:         getEnvOr(lookup, EnvPort, "8080"),
		Applications: getEnvOr(lookup, EnvApplications, ""),
		GuardianURL:  getEnvOr(lookup, EnvGuardianURL, ""),
		Log:          logging.DefaultConfig(),
	}

	if cfg.GuardianURL == "" {
		cfg.warn("%s が設定されていないため、認可が必要なリクエストはすべて拒否されます", EnvGuardianURL)
	}

	if raw := getEnvOr(lookup, EnvUpstreamTimeout, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		switch {
		case err != nil:
			cfg.warn("%s を解釈できないためタイムアウトを設定しません: %v", EnvUpstreamTimeout, err)
		case d < 0:
			cfg.warn("%s が負の値のためタイムアウトを設定しません: %s", EnvUpstreamTimeout, raw)
		default:
			cfg.UpstreamTimeout = d
		}
	}

	cfg.loadLog(lookup)

	return cfg
}

// loadLog はログ設定を読み込む。
func (c *Config) loadLog(lookup LookupFunc) {
	if raw := getEnvOr(lookup, EnvLogLevel, ""); raw != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			c.warn("%s を解釈できないため %s を使用します: %q", EnvLogLevel, c.Log.Level, raw)
		} else {
			c.Log.Level = strings.ToLower(raw)
		}
	}

	switch raw := getEnvOr(lookup, EnvLogFormat, ""); raw {
	case "":
	case "json", "console":
		c.Log.Format = raw
	default:
		c.warn("%s が未対応の値のため %s を使用します: %q", EnvLogFormat, c.Log.Format, raw)
	}
}

// warn は警告を追加する。
func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(lookup LookupFunc, key, defaultValue string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return defaultValue
}
