package guardian

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nao1215/herald/internal/gateway"
	"github.com/nao1215/herald/pkg/httpclient"
)

// unauthorizedMessage は拒否レスポンスの message フィールドの固定文言。
const unauthorizedMessage = "Acesso não autorizado!"

var _ gateway.Guard = Guardian{}

// Guardian は認可サービスへの問い合わせで判定を行うデリゲート。
// 値として複製して各リクエストで共有できる。
type Guardian struct {
	// endpoint は認可サービスのURL。
	endpoint string
	// client は認可サービス呼び出しに使用するHTTPクライアント。
	client *httpclient.Client
	// logger は拒否理由を出力するロガー。
	logger *zap.Logger
}

// New は新しいGuardianを生成する。
func New(endpoint string, client *httpclient.Client, logger *zap.Logger) Guardian {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Guardian{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

// Endpoint は認可サービスのURLを返す。
func (g Guardian) Endpoint() string {
	return g.endpoint
}

// Guard はトークンを認可サービスに問い合わせて判定を返す。
// token が空の場合は通信せずに拒否する。先頭の "Bearer " は取り除いてから送信する。
func (g Guardian) Guard(ctx context.Context, token string) gateway.Decision {
	if token == "" {
		g.logger.Warn("認可を拒否しました", zap.String("reason", "認証トークンがありません"))
		return gateway.Deny(Unauthorized())
	}

	credential := strings.TrimPrefix(token, "Bearer ")
	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	reply, err := g.client.Do(ctx, http.MethodGet, g.endpoint, header, nil)
	if err != nil {
		g.logger.Warn("Guardianと通信できません", zap.Error(err))
		return gateway.Deny(Unauthorized())
	}
	if reply.Status < 200 || reply.Status >= 300 {
		g.logger.Warn("認可を拒否しました", zap.Int("status_code", reply.Status))
		return gateway.Deny(Unauthorized())
	}
	return gateway.Allow()
}

// Unauthorized は固定の拒否レスポンスを生成する。
func Unauthorized() *gateway.ProxyResponse {
	return gateway.NewErrorResponse(http.StatusUnauthorized, unauthorizedMessage, gateway.CodeUnauthorized)
}
