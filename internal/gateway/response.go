package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// timestampLayout はエラーレスポンスのタイムスタンプ形式。秒未満は含めない。
const timestampLayout = "2006-01-02T15:04:05Z07:00"

// エラーレスポンスの code フィールドの値。
const (
	CodeBadRequest   = 3
	CodeNotFound     = 4
	CodeUnauthorized = 5
	CodeBadGateway   = 6
	CodeInternal     = 7
)

// ProxyResponse は呼び出し元へ返すレスポンス。
type ProxyResponse struct {
	// Body はレスポンスボディ。
	Body []byte
	// Status はHTTPステータスコード。
	Status int
	// Header はレスポンスヘッダー。
	Header http.Header
}

// NewProxyResponse はレスポンスを生成する。
// ヘッダーは複製され、Content-Length はボディ長で上書きされる。
func NewProxyResponse(body []byte, status int, header http.Header) *ProxyResponse {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return &ProxyResponse{
		Body:   body,
		Status: status,
		Header: h,
	}
}

// ErrorBody はプロキシ自身が返すエラーレスポンスのボディ。
type ErrorBody struct {
	// Message はエラーメッセージ。
	Message string `json:"message"`
	// Code はエラー種別を表すコード。
	Code int `json:"code"`
	// Timestamp はレスポンス生成時刻（ローカル時刻、秒単位）。
	Timestamp string `json:"timestamp"`
}

// Timestamp は時刻をエラーレスポンス用の文字列に変換する。
func Timestamp(t time.Time) string {
	return t.Local().Format(timestampLayout)
}

// NewErrorResponse はJSONボディのエラーレスポンスを生成する。
func NewErrorResponse(status int, message string, code int) *ProxyResponse {
	body, err := json.Marshal(ErrorBody{
		Message:   message,
		Code:      code,
		Timestamp: Timestamp(time.Now()),
	})
	if err != nil {
		// 文字列と整数のみの構造体なので到達しない
		body = []byte(`{"message":"internal error","code":7}`)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return NewProxyResponse(body, status, header)
}

// Write はレスポンスをそのまま書き込む。
func (r *ProxyResponse) Write(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range r.Header {
		dst[k] = v
	}
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}
