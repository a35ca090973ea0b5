// プロキシのエントリポイント。
// 先頭のパスセグメントで振り分け先のアプリケーションを決め、
// 認可サービスの判定を経てバックエンドへリクエストを転送する。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/herald/internal/config"
	"github.com/nao1215/herald/internal/gateway"
	"github.com/nao1215/herald/internal/router"
	"github.com/nao1215/herald/internal/state"
	"github.com/nao1215/herald/pkg/httpclient"
	"github.com/nao1215/herald/pkg/logging"
	"github.com/nao1215/herald/pkg/metrics"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	client := httpclient.New(cfg.UpstreamTimeout)
	m := metrics.New()
	st := state.FromConfig(cfg, client, logger)

	server := router.NewServer(router.Params{
		Port:     cfg.Port,
		State:    st,
		Engine:   gateway.NewEngine(client, m, logger),
		Recorder: logging.NewRequestRecorder(logger),
		Metrics:  m,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Fatal("プロキシの起動に失敗", zap.Error(err))
	}
}
