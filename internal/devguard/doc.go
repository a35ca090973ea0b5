// Package devguard はローカル開発用の認可サービスを提供する。
//
// プロキシの GUARDIAN_URL に /authorize を指定すると、/dev-token で発行した
// HS256のJWTトークンを持つリクエストだけが許可される。本番環境では使用しない。
package devguard
