package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/herald/pkg/httpclient"
	"github.com/nao1215/herald/pkg/metrics"
)

// fakeGuard は呼び出し回数と受け取ったトークンを記録するテスト用のGuard。
type fakeGuard struct {
	allow bool
	calls atomic.Int32
	mu    sync.Mutex
	token string
}

// Guard は設定された判定を返す。
func (g *fakeGuard) Guard(_ context.Context, token string) Decision {
	g.calls.Add(1)
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	if g.allow {
		return Allow()
	}
	return Deny(NewErrorResponse(http.StatusUnauthorized, "denied", CodeUnauthorized))
}

// receivedRequest はバックエンドが受け取ったリクエスト。
type receivedRequest struct {
	method   string
	path     string
	rawQuery string
	header   http.Header
	body     []byte
}

// testBackend は受け取ったリクエストを記録するテスト用バックエンド。
type testBackend struct {
	server *httptest.Server
	calls  atomic.Int32
	mu     sync.Mutex
	last   receivedRequest
}

// newTestBackend はテスト用バックエンドを起動する。
func newTestBackend(t *testing.T, handler http.HandlerFunc) *testBackend {
	t.Helper()

	b := &testBackend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.last = receivedRequest{
			method:   r.Method,
			path:     r.URL.EscapedPath(),
			rawQuery: r.URL.RawQuery,
			header:   r.Header.Clone(),
			body:     body,
		}
		b.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

// lastRequest はバックエンドが最後に受け取ったリクエストを返す。
func (b *testBackend) lastRequest() receivedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// newTestEngine はテスト用のエンジンを生成する。
func newTestEngine() (*Engine, *metrics.Metrics) {
	m := metrics.New()
	return NewEngine(httpclient.New(0), m, nil), m
}

// scrape はメトリクスの公開内容を取得する。
func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

// TestRouteTo はRouteToの認可判定と転送を検証する。
func TestRouteTo(t *testing.T) {
	t.Parallel()

	t.Run("認可不要ルートはトークン無しでもバックエンドへ転送されること", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"up"}`))
		})
		engine, _ := newTestEngine()
		guard := &fakeGuard{allow: false}

		req := &ProxyRequest{
			SubPath:     "/status",
			Method:      http.MethodGet,
			Header:      http.Header{},
			Application: newTestApplication(t, backend.server.URL, "/status"),
		}
		resp := engine.RouteTo(context.Background(), req, guard)

		if resp.Status != http.StatusOK {
			t.Errorf("Status = %d, want %d", resp.Status, http.StatusOK)
		}
		if string(resp.Body) != `{"status":"up"}` {
			t.Errorf("Body = %q", resp.Body)
		}
		if got := resp.Header.Get("Content-Length"); got != "15" {
			t.Errorf("Content-Length = %q, want %q", got, "15")
		}
		if guard.calls.Load() != 0 {
			t.Errorf("Guard呼び出し回数 = %d, want 0", guard.calls.Load())
		}
		if got := backend.lastRequest().path; got != "/status" {
			t.Errorf("バックエンドのパス = %q, want %q", got, "/status")
		}
	})

	t.Run("拒否された場合はバックエンドへ通信しないこと", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {})
		engine, m := newTestEngine()
		guard := &fakeGuard{allow: false}

		req := &ProxyRequest{
			SubPath:     "/data",
			Method:      http.MethodGet,
			Header:      http.Header{},
			Application: newTestApplication(t, backend.server.URL, "/status"),
		}
		resp := engine.RouteTo(context.Background(), req, guard)

		if resp.Status != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", resp.Status, http.StatusUnauthorized)
		}
		if backend.calls.Load() != 0 {
			t.Errorf("バックエンド呼び出し回数 = %d, want 0", backend.calls.Load())
		}
		if guard.calls.Load() != 1 {
			t.Errorf("Guard呼び出し回数 = %d, want 1", guard.calls.Load())
		}
		if out := scrape(t, m); !strings.Contains(out, `herald_guard_decisions_total{result="deny"} 1`) {
			t.Errorf("deny の判定が記録されていない:\n%s", out)
		}
	})

	t.Run("許可された場合はリクエストがそのまま転送されること", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Add("Set-Cookie", "session=abc")
			w.Header().Set("X-Backend", "ebisu")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte{0x00, 0x01, 0xff})
		})
		engine, _ := newTestEngine()
		guard := &fakeGuard{allow: true}

		header := http.Header{}
		header.Set("Authorization", "Bearer T")
		header.Set("Content-Type", "application/json")
		header.Add("X-Multi", "1")
		header.Add("X-Multi", "2")

		req := &ProxyRequest{
			SubPath:     "/data",
			Method:      http.MethodPost,
			Header:      header,
			Body:        []byte(`{"key":"value"}`),
			Query:       url.Values{"page": {"2"}},
			Application: newTestApplication(t, backend.server.URL, "/status"),
		}
		resp := engine.RouteTo(context.Background(), req, guard)

		if resp.Status != http.StatusCreated {
			t.Fatalf("Status = %d, want %d", resp.Status, http.StatusCreated)
		}
		got := backend.lastRequest()
		if got.method != http.MethodPost {
			t.Errorf("Method = %q, want %q", got.method, http.MethodPost)
		}
		if got.path != "/data" {
			t.Errorf("Path = %q, want %q", got.path, "/data")
		}
		if got.rawQuery != "page=2" {
			t.Errorf("RawQuery = %q, want %q", got.rawQuery, "page=2")
		}
		if string(got.body) != `{"key":"value"}` {
			t.Errorf("Body = %q", got.body)
		}
		if v := got.header.Get("Authorization"); v != "Bearer T" {
			t.Errorf("Authorization = %q, want %q", v, "Bearer T")
		}
		if v := got.header.Values("X-Multi"); len(v) != 2 {
			t.Errorf("X-Multi = %v, want 2 values", v)
		}
		if string(resp.Body) != "\x00\x01\xff" {
			t.Errorf("Body = %q", resp.Body)
		}
		if v := resp.Header.Get("Set-Cookie"); v != "session=abc" {
			t.Errorf("Set-Cookie = %q, want %q", v, "session=abc")
		}
		if v := resp.Header.Get("X-Backend"); v != "ebisu" {
			t.Errorf("X-Backend = %q, want %q", v, "ebisu")
		}
		if v := resp.Header.Get("Content-Length"); v != "3" {
			t.Errorf("Content-Length = %q, want %q", v, "3")
		}
		guard.mu.Lock()
		defer guard.mu.Unlock()
		if guard.token != "Bearer T" {
			t.Errorf("Guardに渡したトークン = %q, want %q", guard.token, "Bearer T")
		}
	})

	t.Run("OPTIONSは保護されたパスでも認可判定を省略すること", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		engine, _ := newTestEngine()
		guard := &fakeGuard{allow: false}

		req := &ProxyRequest{
			SubPath:     "/data",
			Method:      http.MethodOptions,
			Header:      http.Header{},
			Application: newTestApplication(t, backend.server.URL),
		}
		resp := engine.RouteTo(context.Background(), req, guard)

		if resp.Status != http.StatusNoContent {
			t.Errorf("Status = %d, want %d", resp.Status, http.StatusNoContent)
		}
		if guard.calls.Load() != 0 {
			t.Errorf("Guard呼び出し回数 = %d, want 0", guard.calls.Load())
		}
		if backend.calls.Load() != 1 {
			t.Errorf("バックエンド呼び出し回数 = %d, want 1", backend.calls.Load())
		}
	})

	t.Run("チャンク転送のレスポンスにもContent-Lengthが設定されること", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("part1-"))
			w.(http.Flusher).Flush()
			_, _ = w.Write([]byte("part2"))
		})
		engine, _ := newTestEngine()

		req := &ProxyRequest{
			SubPath:     "/stream",
			Method:      http.MethodGet,
			Header:      http.Header{},
			Application: newTestApplication(t, backend.server.URL, "/stream"),
		}
		resp := engine.RouteTo(context.Background(), req, &fakeGuard{})

		if string(resp.Body) != "part1-part2" {
			t.Errorf("Body = %q", resp.Body)
		}
		if got := resp.Header.Get("Content-Length"); got != "11" {
			t.Errorf("Content-Length = %q, want %q", got, "11")
		}
	})

	t.Run("バックエンドに接続できない場合は502を返すこと", func(t *testing.T) {
		t.Parallel()

		engine, m := newTestEngine()

		req := &ProxyRequest{
			SubPath:     "/data",
			Method:      http.MethodGet,
			Header:      http.Header{},
			Application: newTestApplication(t, "http://127.0.0.1:1"),
		}
		resp := engine.RouteTo(context.Background(), req, &fakeGuard{allow: true})

		if resp.Status != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", resp.Status, http.StatusBadGateway)
		}
		var body ErrorBody
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			t.Fatalf("ボディのパースに失敗: %v", err)
		}
		if body.Code != CodeBadGateway {
			t.Errorf("code = %d, want %d", body.Code, CodeBadGateway)
		}
		if out := scrape(t, m); !strings.Contains(out, `herald_backend_errors_total{domain="ebisu"} 1`) {
			t.Errorf("バックエンドの失敗が記録されていない:\n%s", out)
		}
	})

	t.Run("転送先URLを組み立てられない場合は400を返すこと", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {})
		engine, _ := newTestEngine()

		req := &ProxyRequest{
			SubPath:     "/bad%zz",
			Method:      http.MethodGet,
			Header:      http.Header{},
			Application: newTestApplication(t, backend.server.URL, "/bad%zz"),
		}
		resp := engine.RouteTo(context.Background(), req, &fakeGuard{})

		if resp.Status != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", resp.Status, http.StatusBadRequest)
		}
		if backend.calls.Load() != 0 {
			t.Errorf("バックエンド呼び出し回数 = %d, want 0", backend.calls.Load())
		}
	})

	t.Run("呼び出し元のコンテキストがキャンセル済みでも転送されること", func(t *testing.T) {
		t.Parallel()

		backend := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("done"))
		})
		engine, _ := newTestEngine()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := &ProxyRequest{
			SubPath:     "/status",
			Method:      http.MethodGet,
			Header:      http.Header{},
			Application: newTestApplication(t, backend.server.URL, "/status"),
		}
		resp := engine.RouteTo(ctx, req, &fakeGuard{})

		if resp.Status != http.StatusOK {
			t.Errorf("Status = %d, want %d", resp.Status, http.StatusOK)
		}
		if backend.calls.Load() != 1 {
			t.Errorf("バックエンド呼び出し回数 = %d, want 1", backend.calls.Load())
		}
	})
}
