package gateway

import "context"

// Decision は認可判定の結果。許可、または拒否レスポンス付きの拒否のいずれか。
type Decision struct {
	denial *ProxyResponse
}

// Allow は許可の判定を返す。
func Allow() Decision {
	return Decision{}
}

// Deny は拒否の判定を返す。
func Deny(resp *ProxyResponse) Decision {
	return Decision{denial: resp}
}

// Allowed は許可された場合に true を返す。
func (d Decision) Allowed() bool {
	return d.denial == nil
}

// Denial は拒否時に返すレスポンスを返す。許可された場合は nil。
func (d Decision) Denial() *ProxyResponse {
	return d.denial
}

// Guard は認可判定を行うデリゲート。
// token が空文字列の場合はトークンが無いものとして扱う。
type Guard interface {
	Guard(ctx context.Context, token string) Decision
}
