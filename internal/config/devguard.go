package config

import (
	"time"

	"github.com/nao1215/herald/pkg/logging"
)

// 開発用認可サービスの環境変数名。
const (
	EnvDevGuardSecret   = "DEVGUARD_SECRET"
	EnvDevGuardTokenTTL = "DEVGUARD_TOKEN_TTL"
)

// DevGuardService は開発用認可サービスのログの service フィールドの値。
const DevGuardService = "herald_devguard"

// defaultDevGuardSecret は開発用認可サービスの既定のJWTシークレット。
const defaultDevGuardSecret = "dev-secret-key"

// DevGuard は開発用認可サービスの設定。
type DevGuard struct {
	// Port はサーバーのリッスンポート。
	Port string
	// Secret はJWT署名用の秘密鍵。
	Secret string
	// TokenTTL は発行するトークンの有効期間。
	TokenTTL time.Duration
	// Log はロガーの設定。
	Log logging.Config
	// Warnings は読み込み時に発生した警告。
	Warnings []string
}

// LoadDevGuard は lookup から開発用認可サービスの設定を読み込む。失敗することはない。
func LoadDevGuard(lookup LookupFunc) *DevGuard {
	// 警告の収集とログ設定の解釈はプロキシと共通
	base := &Config{Log: logging.DefaultConfig()}
	cfg := &DevGuard{
		Port:     getEnvOr(lookup, EnvPort, "8000"),
		Secret:   getEnvOr(lookup, EnvDevGuardSecret, ""),
		TokenTTL: 24 * time.Hour,
	}

	if cfg.Secret == "" {
		cfg.Secret = defaultDevGuardSecret
		base.warn("%s が設定されていないため既定のシークレットを使用します", EnvDevGuardSecret)
	}

	if raw := getEnvOr(lookup, EnvDevGuardTokenTTL, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			base.warn("%s を解釈できないため %s を使用します: %q", EnvDevGuardTokenTTL, cfg.TokenTTL, raw)
		} else {
			cfg.TokenTTL = d
		}
	}

	base.loadLog(lookup)
	cfg.Log = base.Log
	cfg.Log.Service = DevGuardService
	cfg.Warnings = base.Warnings
	return cfg
}
