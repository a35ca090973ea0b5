package gateway

import (
	"errors"
	"fmt"
)

// 転送処理のエラー種別。
var (
	// ErrPathResolution はサブパスから転送先URLを組み立てられないことを示す。
	ErrPathResolution = errors.New("path resolution failed")
	// ErrBackendUnreachable はバックエンドとの通信に失敗したことを示す。
	ErrBackendUnreachable = errors.New("backend unreachable")
)

// ForwardError は転送処理で発生したエラーの詳細。
type ForwardError struct {
	// Op は失敗した処理。
	Op string
	// Domain は振り分け先アプリケーションのドメイン。
	Domain string
	// Target は転送先。
	Target string
	// Kind はエラー種別（ErrPathResolution または ErrBackendUnreachable）。
	Kind error
	// Cause は元となったエラー。
	Cause error
}

// Error はエラーメッセージを返す。
func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward error [%s] domain=%s target=%s: %v: %v", e.Op, e.Domain, e.Target, e.Kind, e.Cause)
}

// Unwrap はエラー種別と元のエラーを返す。
func (e *ForwardError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}
