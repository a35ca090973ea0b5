// Package httpclient はプロキシが外部へ送るHTTP通信のクライアントを提供する。
//
// Guardianへの認可問い合わせとバックエンドへの転送の両方で使用する。
// ボディは一切解釈せずバイト列のまま送受信し、レスポンスは全体を
// 読み取ってから呼び出し側へ返す。
package httpclient
