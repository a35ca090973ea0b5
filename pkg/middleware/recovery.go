package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/herald/pkg/logging"
)

// codeInternal はパニック時のエラーレスポンスの code フィールドの値。
const codeInternal = 7

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時に内容をログに出力し、500エラーを返す。
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []zap.Field{
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("panic", fmt.Sprint(r)),
					zap.Stack("stack"),
				}
				if id := logging.RequestIDFromContext(c.Request.Context()); id != "" {
					fields = append(fields, zap.String("request_id", id))
				}
				logger.Error("パニックから回復しました", fields...)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message":   "内部サーバーエラーが発生しました",
					"code":      codeInternal,
					"timestamp": time.Now().Local().Format(time.RFC3339),
				})
			}
		}()
		c.Next()
	}
}
