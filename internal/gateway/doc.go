// Package gateway はリクエストの認可判定と転送を行うフォワーディングエンジンを提供する。
//
// 振り分け先が決まったリクエストを受け取り、必要であればGuardianに認可を
// 問い合わせてからバックエンドへそのまま転送し、レスポンスを中継する。
// 認可の判定は必ずバックエンドへの通信より前に行う。ボディはバイト列として
// 扱い、解釈や再エンコードは行わない。中継するレスポンスの Content-Length は
// 常に実際のボディ長で上書きする。
package gateway
