package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
const ShutdownTimeout = 10 * time.Second

// readHeaderTimeout はリクエストヘッダーの読み取り期限。
const readHeaderTimeout = 10 * time.Second

// New はポートとハンドラーからHTTPサーバーを生成する。
func New(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Run は srv を起動し、ctx が終了するとグレースフルシャットダウンする。
// 起動に失敗した場合はエラーを返す。停止による終了ではnilを返す。
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	logger.Info("サーバーを停止します", zap.String("addr", srv.Addr))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	return nil
}
