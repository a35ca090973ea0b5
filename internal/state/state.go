package state

import (
	"go.uber.org/zap"

	"github.com/nao1215/herald/internal/application"
	"github.com/nao1215/herald/internal/config"
	"github.com/nao1215/herald/internal/guardian"
	"github.com/nao1215/herald/pkg/httpclient"
)

// State はアプリケーション一覧と認可デリゲートの組。
// 構築後は変更されないため、ロックなしで並行に参照できる。
type State struct {
	// Registry は登録済みアプリケーションの一覧。
	Registry *application.Registry
	// Guardian は認可デリゲート。
	Guardian guardian.Guardian
}

// New は新しいStateを生成する。registry が nil の場合は空の一覧を使用する。
func New(registry *application.Registry, g guardian.Guardian) *State {
	if registry == nil {
		registry = application.NewRegistry(nil)
	}
	return &State{
		Registry: registry,
		Guardian: g,
	}
}

// FromConfig は設定からStateを構築する。
// アプリケーション定義が解釈できない場合でも失敗せず、空の一覧で構築する。
func FromConfig(cfg *config.Config, client *httpclient.Client, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := application.Decode(logger, cfg.Applications)
	for app := range registry.Iterate() {
		logger.Info("アプリケーションを登録しました",
			zap.String("name", app.Name()),
			zap.String("domain", app.Domain()),
			zap.String("endpoint", app.Endpoint()),
		)
	}
	return New(registry, guardian.New(cfg.GuardianURL, client, logger))
}
