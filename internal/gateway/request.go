package gateway

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/herald/internal/application"
)

// ProxyRequest は振り分け先が決まった1件のリクエスト。
// リクエストごとに生成され、エンジンで一度だけ消費される。
type ProxyRequest struct {
	// SubPath はドメインを除いたパス。先頭は "/" で、エスケープされた形のまま保持する。
	// 認可不要ルートの照合もこの形で行う。
	SubPath string
	// Method はHTTPメソッド。
	Method string
	// Header はリクエストヘッダー。Authorization も含めてそのまま転送する。
	Header http.Header
	// Body はリクエストボディ。
	Body []byte
	// Query はクエリパラメータ。
	Query url.Values
	// Application は振り分け先のアプリケーション。
	Application *application.Application
}

// ShouldGuard はリクエストに認可判定が必要かを返す。
// OPTIONS（CORSプリフライト）と認可不要ルートへのリクエストは判定を省略する。
func (r *ProxyRequest) ShouldGuard() bool {
	if r.Method == http.MethodOptions {
		return false
	}
	if r.Application.IsUnauthenticated(r.SubPath) {
		return false
	}
	return true
}

// Target はエンドポイントとサブパスを連結した転送先を返す。
// ログ出力用であり、URLとして妥当かどうかは検証しない。
func (r *ProxyRequest) Target() string {
	target := r.Application.Endpoint() + r.SubPath
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}
	return target
}

// BackendURL は転送先のURLを組み立てる。
// サブパスはエスケープされた形のまま RawPath に連結し、Path にはその復号結果を連結する。
// サブパスを復号できない場合は ErrPathResolution を返す。
func (r *ProxyRequest) BackendURL() (*url.URL, error) {
	decoded, err := url.PathUnescape(r.SubPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathResolution, err)
	}
	u := r.Application.EndpointURL()
	u.RawPath = u.EscapedPath() + r.SubPath
	u.Path += decoded
	u.RawQuery = r.Query.Encode()
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}
