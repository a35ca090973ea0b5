// Package middleware はGinベースのHTTPサーバーで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストIDの付与、JWTトークンの発行と検証を含む。
package middleware
