// Package config は環境変数からプロキシの設定を読み込む。
//
// 設定の読み込みは起動を失敗させない。不正な値や未設定の値は
// デフォルト値に置き換え、その旨を警告として呼び出し側へ返す。
package config
