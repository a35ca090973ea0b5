// Package router はリクエストを受け付け、先頭のパスセグメントで
// 振り分け先のアプリケーションを決めて転送エンジンへ渡すディスパッチャーを提供する。
//
// ルートは "/:domain/*path" の1つだけで、アプリケーションの検索は
// リクエストごとにレジストリの索引を引いて行う。
package router
