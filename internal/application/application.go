package application

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidApplication はアプリケーション定義が不正であることを示す。
var ErrInvalidApplication = errors.New("invalid application")

// Application は登録済みのバックエンドアプリケーション。
// 生成後は変更されず、全リクエストから参照で共有される。
type Application struct {
	// name は設定上のアプリケーション名。
	name string
	// endpoint はバックエンドのベースURL。
	endpoint *url.URL
	// unauthenticated は認可を省略するサブパスの集合。
	unauthenticated map[string]struct{}
}

// New はアプリケーションを生成する。
// 名前が空の場合、またはURLが絶対URLとして解釈できない場合はエラーを返す。
func New(name, endpoint string, unauthenticatedRoutes []string) (*Application, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: 名前が空です", ErrInvalidApplication)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s のURLが不正です: %w", ErrInvalidApplication, name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s のURLは絶対URLである必要があります: %q", ErrInvalidApplication, name, endpoint)
	}

	// サブパスは先頭に "/" を持つため、末尾の "/" は取り除いて連結する
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = strings.TrimSuffix(u.RawPath, "/")

	routes := make(map[string]struct{}, len(unauthenticatedRoutes))
	for _, r := range unauthenticatedRoutes {
		routes[r] = struct{}{}
	}

	return &Application{
		name:            name,
		endpoint:        u,
		unauthenticated: routes,
	}, nil
}

// Name は設定上のアプリケーション名を返す。
func (a *Application) Name() string {
	return a.name
}

// Domain はパスの先頭セグメントとして照合するドメイン名を返す。
func (a *Application) Domain() string {
	return strings.ToLower(a.name)
}

// Endpoint はバックエンドのベースURLを文字列で返す。
func (a *Application) Endpoint() string {
	return a.endpoint.String()
}

// EndpointURL はバックエンドのベースURLの複製を返す。
func (a *Application) EndpointURL() *url.URL {
	u := *a.endpoint
	if a.endpoint.User != nil {
		user := *a.endpoint.User
		u.User = &user
	}
	return &u
}

// IsUnauthenticated はサブパスが認可不要ルートに含まれるかを返す。
// 前方一致ではなく完全一致で判定する。
func (a *Application) IsUnauthenticated(subPath string) bool {
	_, ok := a.unauthenticated[subPath]
	return ok
}
