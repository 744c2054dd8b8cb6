// Package apperr は、パイプラインの境界を越えて呼び出し側に返すエラーを定義します。
package apperr

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類です。呼び出し側は Kind で分岐し、Message をそのまま表示します。
type Kind string

const (
	// KindConfig は認証情報や設定の不備です。ネットワーク呼び出しの前に検出されます。
	KindConfig Kind = "config"
	// KindInvalidInput は呼び出し側の入力値の不備です（空の都市名など）。
	KindInvalidInput Kind = "invalid_input"
	// KindTransport は名前解決、タイムアウト、接続拒否などの通信エラーです。
	KindTransport Kind = "transport"
	// KindGateway はゲートウェイが 2xx 以外のステータスを返した場合です。
	KindGateway Kind = "gateway"
	// KindFormat は応答は得られたが期待した形式ではなかった場合です。
	KindFormat Kind = "format"
	// KindEmptyResult は成功応答の中にテキストや画像が含まれていなかった場合です。
	KindEmptyResult Kind = "empty_result"
)

// Error はユーザー向けメッセージと分類を保持するエラーです。
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // KindGateway の場合のみ HTTP ステータス
	Err        error
}

// Error は Message をそのまま返します。UI はこの文字列をトーストなどに表示します。
func (e *Error) Error() string {
	return e.Message
}

// Unwrap は原因となったエラーを返します。
func (e *Error) Unwrap() error {
	return e.Err
}

// New は原因を持たない Error を生成します。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf は書式付きメッセージで Error を生成します。
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap は原因となるエラーを保持したまま Error を生成します。
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf は err の連鎖から Error を探し、その Kind を返します。見つからなければ空文字です。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind は err が指定された Kind の Error を含むかどうかを判定します。
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message は err に含まれる Error のメッセージを返します。Error でなければ err.Error() を返します。
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
