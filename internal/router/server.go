package router

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/herald/internal/gateway"
	"github.com/nao1215/herald/internal/state"
	"github.com/nao1215/herald/pkg/httpserver"
	"github.com/nao1215/herald/pkg/logging"
	"github.com/nao1215/herald/pkg/metrics"
	"github.com/nao1215/herald/pkg/middleware"
)

// reservedDomains はプロキシ自身のGETエンドポイントと重なるドメイン。
var reservedDomains = map[string]string{
	"health":  "/health",
	"metrics": "/metrics",
}

// Recorder はディスパッチ直前のリクエスト情報の記録先。
type Recorder interface {
	Record(ctx context.Context, req logging.Request)
}

// Params はServerの構築に必要な依存。
type Params struct {
	// Port はリッスンポート。
	Port string
	// State は共有状態。
	State *state.State
	// Engine は転送エンジン。
	Engine *gateway.Engine
	// Recorder はリクエスト情報の記録先。nil の場合は記録しない。
	Recorder Recorder
	// Metrics はメトリクスの記録先。nil の場合は /metrics を公開しない。
	Metrics *metrics.Metrics
	// Logger はサーバーのロガー。
	Logger *zap.Logger
}

// Server はプロキシのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// state は共有状態。
	state *state.State
	// engine は転送エンジン。
	engine *gateway.Engine
	// recorder はリクエスト情報の記録先。
	recorder Recorder
	// metrics はメトリクスの記録先。
	metrics *metrics.Metrics
	// logger はサーバーのロガー。
	logger *zap.Logger
}

// nopRecorder は何も記録しないレコーダー。
type nopRecorder struct{}

func (nopRecorder) Record(context.Context, logging.Request) {}

// NewServer は新しいプロキシサーバーを生成する。
func NewServer(p Params) *Server {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := p.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	router := gin.New()
	// ドメインの照合はエスケープされた形で行う
	router.UseRawPath = true
	router.UnescapePathValues = false
	router.RedirectTrailingSlash = false
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))

	s := &Server{
		router:   router,
		port:     p.Port,
		state:    p.State,
		engine:   p.Engine,
		recorder: recorder,
		metrics:  p.Metrics,
		logger:   logger,
	}
	s.setupRoutes()
	s.warnReservedDomains()

	return s
}

// Handler はサーバーのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctx が終了するとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Run(ctx, httpserver.New(s.port, s.router), s.logger)
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "up")
	})

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.Any("/:domain/*path", s.dispatch)

	s.router.NoRoute(func(c *gin.Context) {
		gateway.NewErrorResponse(http.StatusNotFound, "route not found", gateway.CodeNotFound).Write(c.Writer)
	})
}

// warnReservedDomains はプロキシ自身のエンドポイントと重なるドメインを警告する。
func (s *Server) warnReservedDomains() {
	for app := range s.state.Registry.Iterate() {
		if path, ok := reservedDomains[app.Domain()]; ok {
			s.logger.Warn("GET "+path+" はプロキシ自身が応答するため、このアプリケーションには転送されません",
				zap.String("name", app.Name()),
				zap.String("domain", app.Domain()),
			)
		}
	}
}

// unknownDomain は未登録ドメインへのリクエストを記録する際の domain ラベル。
const unknownDomain = ""

// dispatch はドメインに対応するアプリケーションへリクエストを振り分ける。
func (s *Server) dispatch(c *gin.Context) {
	domain := c.Param("domain")
	app, ok := s.state.Registry.Lookup(domain)
	if !ok {
		s.reject(c, unknownDomain, http.StatusNotFound, "application not found", gateway.CodeNotFound)
		return
	}

	query, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		s.logger.Warn("クエリ文字列を解釈できません",
			zap.String("domain", domain),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		s.reject(c, domain, http.StatusBadRequest, "malformed query string", gateway.CodeBadRequest)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.logger.Warn("リクエストボディの読み取りに失敗しました",
			zap.String("domain", domain),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		s.reject(c, domain, http.StatusBadRequest, "failed to read request body", gateway.CodeBadRequest)
		return
	}

	req := &gateway.ProxyRequest{
		SubPath:     subPath(c.Request.URL.EscapedPath()),
		Method:      c.Request.Method,
		Header:      c.Request.Header.Clone(),
		Body:        body,
		Query:       query,
		Application: app,
	}

	ctx := c.Request.Context()
	s.recorder.Record(ctx, logging.Request{
		Domain: app.Domain(),
		Path:   req.SubPath,
		URL:    req.Target(),
		Method: req.Method,
	})

	resp := s.engine.RouteTo(ctx, req, s.state.Guardian)
	resp.Write(c.Writer)
	s.observe(domain, req.Method, resp.Status)
}

// reject はプロキシ自身のエラーレスポンスを返し、メトリクスに記録する。
func (s *Server) reject(c *gin.Context, domain string, status int, message string, code int) {
	resp := gateway.NewErrorResponse(status, message, code)
	resp.Write(c.Writer)
	s.observe(domain, c.Request.Method, resp.Status)
}

// subPath はエスケープされたリクエストパスから先頭のドメインセグメントを除いたパスを返す。
// "/ebisu/a%3Fb" は "/a%3Fb" になる。
func subPath(escapedPath string) string {
	rest := strings.TrimPrefix(escapedPath, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i:]
	}
	return "/"
}

// observe はリクエストの結果をメトリクスに記録する。
func (s *Server) observe(domain, method string, status int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRequest(domain, method, status)
}
