package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nao1215/herald/pkg/httpclient"
	"github.com/nao1215/herald/pkg/metrics"
)

// Engine はリクエストを認可判定のうえバックエンドへ転送するエンジン。
// 状態を持たないため複数のリクエストから並行に利用できる。
type Engine struct {
	// client はバックエンド呼び出しに使用するHTTPクライアント。
	client *httpclient.Client
	// metrics はメトリクスの記録先。nil の場合は記録しない。
	metrics *metrics.Metrics
	// logger は転送失敗を出力するロガー。
	logger *zap.Logger
}

// NewEngine は新しいエンジンを生成する。
func NewEngine(client *httpclient.Client, m *metrics.Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// RouteTo はリクエストを処理し、呼び出し元へ返すレスポンスを生成する。
//
// 認可が必要なリクエストは先に guard へ問い合わせ、拒否された場合は
// バックエンドへ一切通信せずに拒否レスポンスを返す。転送に失敗した場合は
// 502、転送先URLを組み立てられない場合は400を返す。
//
// 呼び出し元が切断しても、開始した認可問い合わせと転送は中断しない。
func (e *Engine) RouteTo(ctx context.Context, req *ProxyRequest, guard Guard) *ProxyResponse {
	ctx = context.WithoutCancel(ctx)

	if !req.ShouldGuard() {
		e.observeGuard(metrics.ResultSkip)
	} else {
		decision := guard.Guard(ctx, req.Header.Get("Authorization"))
		if !decision.Allowed() {
			e.observeGuard(metrics.ResultDeny)
			return decision.Denial()
		}
		e.observeGuard(metrics.ResultAllow)
	}

	resp, err := e.forward(ctx, req)
	if err != nil {
		e.logger.Error("プロキシエラー", zap.Error(err))
		if errors.Is(err, ErrPathResolution) {
			return NewErrorResponse(http.StatusBadRequest, "転送先のパスを解決できません", CodeBadRequest)
		}
		return NewErrorResponse(http.StatusBadGateway, "バックエンドとの通信に失敗しました", CodeBadGateway)
	}
	return resp
}

// forward はリクエストをバックエンドへ転送し、レスポンスを中継用に組み立てる。
func (e *Engine) forward(ctx context.Context, req *ProxyRequest) (*ProxyResponse, error) {
	domain := req.Application.Domain()

	u, err := req.BackendURL()
	if err != nil {
		return nil, &ForwardError{Op: "resolve", Domain: domain, Target: req.Target(), Kind: ErrPathResolution, Cause: err}
	}
	target := u.String()

	start := time.Now()
	reply, err := e.client.Do(ctx, req.Method, target, req.Header, req.Body)
	e.observeBackend(domain, time.Since(start), err != nil)
	if err != nil {
		return nil, &ForwardError{Op: "forward", Domain: domain, Target: target, Kind: ErrBackendUnreachable, Cause: err}
	}

	return NewProxyResponse(reply.Body, reply.Status, reply.Header), nil
}

func (e *Engine) observeGuard(result string) {
	if e.metrics != nil {
		e.metrics.ObserveGuard(result)
	}
}

func (e *Engine) observeBackend(domain string, elapsed time.Duration, failed bool) {
	if e.metrics != nil {
		e.metrics.ObserveBackend(domain, elapsed, failed)
	}
}
