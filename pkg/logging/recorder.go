package logging

import (
	"context"

	"go.uber.org/zap"
)

// Request はディスパッチ直前に記録する1リクエスト分の情報。
type Request struct {
	// Domain は振り分け先アプリケーションのドメイン。
	Domain string
	// Path はドメインを除いたサブパス。
	Path string
	// URL は転送先バックエンドのURL。
	URL string
	// Method はHTTPメソッド。
	Method string
}

// RequestRecorder は Request をzapロガーへ出力するレコーダー。
type RequestRecorder struct {
	logger *zap.Logger
}

// NewRequestRecorder は新しい RequestRecorder を生成する。
// logger が nil の場合は何も出力しない。
func NewRequestRecorder(logger *zap.Logger) *RequestRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestRecorder{logger: logger}
}

// Record はリクエスト情報を info レベルで出力する。
func (r *RequestRecorder) Record(ctx context.Context, req Request) {
	fields := []zap.Field{
		zap.String("domain", req.Domain),
		zap.String("path", req.Path),
		zap.String("url", req.URL),
		zap.String("method", req.Method),
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	r.logger.Info("New Request", fields...)
}
