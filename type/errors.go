package tptypes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDecode             = errors.New("decode error")
	ErrMattingUnavailable = errors.New("matting unavailable")
	ErrTrace              = errors.New("trace error")
	ErrIO                 = errors.New("io error")
	ErrDegenerateInput    = errors.New("degenerate input")
)

// TraceError 描摹器失败，携带原始诊断输出
type TraceError struct {
	Stderr string
	Err    error
}

func (e *TraceError) Error() string {
	msg := "trace failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += " (" + s + ")"
	}
	return msg
}

func (e *TraceError) Unwrap() error { return e.Err }

func (e *TraceError) Is(target error) bool { return target == ErrTrace }

// Decodef 包装解码错误
func Decodef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// IOf 包装文件系统错误，保留原因
func IOf(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
