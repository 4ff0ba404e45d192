package market

import (
	"context"
	"errors"
	"fmt"
)

// FetchError 描述一次数据拉取失败（超时、传输错误、非 2xx 状态、响应体无效）。
type FetchError struct {
	Kind   Kind
	Symbol string
	Status int
	Cause  error
}

func (e *FetchError) Error() string {
	target := e.Symbol
	if target == "" {
		target = "-"
	}
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s for %s: status %d: %v", e.Kind, target, e.Status, e.Cause)
	}
	return fmt.Sprintf("fetch %s for %s: %v", e.Kind, target, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Temporary 为 true 时值得重试：传输错误、429 与 5xx。取消不重试。
func (e *FetchError) Temporary() bool {
	if errors.Is(e.Cause, context.Canceled) {
		return false
	}
	if e.Status == 0 {
		return true
	}
	return e.Status == 429 || e.Status >= 500
}

// AsFetchError unwraps err into a *FetchError when possible.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
