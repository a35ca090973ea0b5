// 開発用認可サービスのエントリポイント。
// プロキシをローカルで動かすために、JWTトークンの発行と検証だけを行う。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/herald/internal/config"
	"github.com/nao1215/herald/internal/devguard"
	"github.com/nao1215/herald/pkg/logging"
)

func main() {
	cfg := config.LoadDevGuard(os.LookupEnv)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	server := devguard.NewServer(cfg.Port, cfg.Secret, cfg.TokenTTL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Fatal("開発用認可サービスの起動に失敗", zap.Error(err))
	}
}
