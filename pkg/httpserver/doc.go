// Package httpserver はHTTPサーバーの起動とグレースフルシャットダウンを共通化する。
package httpserver
