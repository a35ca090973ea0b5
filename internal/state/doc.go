// Package state は起動時に一度だけ構築され、全リクエストで共有される状態を提供する。
package state
