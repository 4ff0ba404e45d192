package decision

import (
	"errors"
	"fmt"

	"tradewatch/internal/pkg/text"
)

var (
	// ErrEmptyReply 模型既没有文本也没有函数调用参数。
	ErrEmptyReply = errors.New("EmptyReply")
	ErrNoJSON     = errors.New("no JSON object found")
	ErrNotObject  = errors.New("reply is not a JSON object")
	ErrMissing    = errors.New("required field missing")
)

// InferenceError 表示调用模型失败（传输、服务端或空回复）。
type InferenceError struct {
	Provider string
	Cause    error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed (%s): %v", e.Provider, e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }

// UnparsableError 表示回复不符合输出约定。Field 为空代表整体无法解析。
type UnparsableError struct {
	RawText string
	Field   string
	Cause   error
}

func (e *UnparsableError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unparsable decision: field %s: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("unparsable decision: %v (raw=%q)", e.Cause, text.Truncate(e.RawText, 120))
}

func (e *UnparsableError) Unwrap() error { return e.Cause }
