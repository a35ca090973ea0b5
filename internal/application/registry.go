package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"
)

// Definition は設定ファイル上のアプリケーション定義。
type Definition struct {
	// Name はアプリケーション名。小文字化したものがドメインになる。
	Name string `json:"name"`
	// URL はバックエンドのベースURL。
	URL string `json:"url"`
	// UnauthenticatedRoutes は認可を省略するサブパスの一覧。
	UnauthenticatedRoutes []string `json:"unauthenticated_routes"`
}

// Registry は登録順を保持するアプリケーションの集合。
// 構築後は変更されないため、ロックなしで並行に参照できる。
type Registry struct {
	apps     []*Application
	byDomain map[string]*Application
}

// NewRegistry はアプリケーション一覧からレジストリを構築する。
// 同じドメインが複数回登録された場合は最初の登録を採用し、
// 以降の登録は警告を出して読み捨てる。
func NewRegistry(logger *zap.Logger, apps ...*Application) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		apps:     make([]*Application, 0, len(apps)),
		byDomain: make(map[string]*Application, len(apps)),
	}
	for i, app := range apps {
		if app == nil {
			continue
		}
		if first, ok := r.byDomain[app.Domain()]; ok {
			logger.Warn("ドメインが重複しているため後続の登録を無視します",
				zap.String("domain", app.Domain()),
				zap.String("kept", first.Endpoint()),
				zap.String("ignored", app.Endpoint()),
				zap.Int("position", i),
			)
			continue
		}
		r.apps = append(r.apps, app)
		r.byDomain[app.Domain()] = app
	}
	return r
}

// FromDefinitions は定義一覧からレジストリを構築する。
// 不正な定義はその要素のみ警告を出して読み捨てる。
func FromDefinitions(logger *zap.Logger, defs []Definition) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	apps := make([]*Application, 0, len(defs))
	for i, d := range defs {
		app, err := New(d.Name, d.URL, d.UnauthenticatedRoutes)
		if err != nil {
			logger.Warn("アプリケーション定義を読み捨てます", zap.Int("position", i), zap.Error(err))
			continue
		}
		apps = append(apps, app)
	}
	return NewRegistry(logger, apps...)
}

// Decode はJSON配列の設定からレジストリを構築する。
// 空文字列、またはJSONとして解釈できない場合は空のレジストリを返し、
// 警告を出力する。プロセスを停止させることはない。
func Decode(logger *zap.Logger, raw string) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	defs, err := parseDefinitions(raw)
	if err != nil {
		logger.Warn("アプリケーション設定を読み込めないため空のレジストリで起動します", zap.Error(err))
		return NewRegistry(logger)
	}
	return FromDefinitions(logger, defs)
}

// parseDefinitions はJSON配列をアプリケーション定義一覧に変換する。
func parseDefinitions(raw string) ([]Definition, error) {
	if raw == "" {
		return nil, errors.New("アプリケーション設定が空です")
	}
	var defs []Definition
	if err := json.Unmarshal([]byte(raw), &defs); err != nil {
		return nil, fmt.Errorf("アプリケーション設定のデコードに失敗: %w", err)
	}
	return defs, nil
}

// Iterate は登録順にアプリケーションを列挙する。
// 呼び出すたびに先頭から新しく走査する。
func (r *Registry) Iterate() iter.Seq[*Application] {
	return func(yield func(*Application) bool) {
		for _, app := range r.apps {
			if !yield(app) {
				return
			}
		}
	}
}

// Lookup はドメインに対応するアプリケーションを返す。
func (r *Registry) Lookup(domain string) (*Application, bool) {
	app, ok := r.byDomain[domain]
	return app, ok
}

// Len は登録されているアプリケーション数を返す。
func (r *Registry) Len() int {
	return len(r.apps)
}
