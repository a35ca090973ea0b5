package devguard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/herald/pkg/httpserver"
	"github.com/nao1215/herald/pkg/middleware"
)

// defaultSubject はトークン発行時に主体が指定されなかった場合の値。
const defaultSubject = "dev-user"

// Server は開発用認可サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// secret はJWT署名用の秘密鍵。
	secret string
	// tokenTTL は発行するトークンの有効期間。
	tokenTTL time.Duration
	// logger はサーバーのロガー。
	logger *zap.Logger
}

// tokenRequest はトークン発行リクエストのボディ。
type tokenRequest struct {
	Subject string `json:"subject"`
	Scope   string `json:"scope"`
}

// NewServer は新しい開発用認可サーバーを生成する。
func NewServer(port, secret string, tokenTTL time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = middleware.DefaultTokenTTL
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))

	s := &Server{
		router:   router,
		port:     port,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
	s.setupRoutes()

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
	s.router.GET("/authorize", middleware.JWTAuth(s.secret), s.handleAuthorize())
	// 開発用トークン発行
	s.router.POST("/dev-token", s.handleDevToken())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "devguard"})
	})
}

// handleAuthorize は検証済みトークンの主体を返すハンドラを返す。
func (s *Server) handleAuthorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := middleware.GetSubject(c)
		s.logger.Debug("認可しました",
			zap.String("subject", subject),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		c.JSON(http.StatusOK, gin.H{"subject": subject})
	}
}

// handleDevToken は開発用JWTトークンを発行するハンドラを返す。
// ボディは省略でき、主体を省略した場合は dev-user になる。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディが不正です"})
			return
		}
		if req.Subject == "" {
			req.Subject = defaultSubject
		}

		token, err := middleware.GenerateJWT(s.secret, req.Subject, req.Scope, s.tokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			s.logger.Error("JWT生成エラー", zap.Error(err))
			return
		}

		s.logger.Info("開発用トークンを発行しました", zap.String("subject", req.Subject))
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"subject":    req.Subject,
			"expires_in": int64(s.tokenTTL / time.Second),
		})
	}
}
