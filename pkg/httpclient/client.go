package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client は外部サービス呼び出し用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
}

// Reply は外部サービスからのレスポンス。ボディは読み取り済み。
type Reply struct {
	// Status はHTTPステータスコード。
	Status int
	// Header はレスポンスヘッダー。
	Header http.Header
	// Body はレスポンスボディ。
	Body []byte
}

// New は新しいHTTPクライアントを生成する。
// timeout に0を指定した場合はタイムアウトを設定しない。
func New(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			// リダイレクトは追跡せず、そのまま呼び出し元へ返す
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do はリクエストを送信し、レスポンス全体を読み取って返す。
// 通信自体に失敗した場合とボディの読み取りに失敗した場合のみエラーを返し、
// ステータスコードによるエラー判定は行わない。
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*Reply, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if header != nil {
		req.Header = header.Clone()
	}
	// User-Agentが無い場合にGo既定の値が付与されないようにする
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header.Set("User-Agent", "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	return &Reply{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   respBody,
	}, nil
}
