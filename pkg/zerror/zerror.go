// Package zerror carries a transport-agnostic status, a stable code and a
// client facing message on top of an optional parent error.
package zerror

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

type ZError struct {
	parent error
	status Status
	code   string
	msg    string
	meta   map[string]any
}

// NewZError initializes a ZError instance.
//
// code example: PRODUCT_NOT_FOUND
func NewZError(parent error, status Status, code, msg string) ZError {
	return ZError{
		parent: parent,
		status: status,
		code:   code,
		msg:    msg,
	}
}

func (e ZError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Code=%s, Msg=%s", e.code, e.msg)
	if e.parent != nil {
		fmt.Fprintf(&b, ", Parent=(%v)", e.parent)
	}
	return b.String()
}

// WrapParent attaches an underlying error to a copy of e.
func (e ZError) WrapParent(parent error) ZError {
	if parent == nil {
		return e
	}
	e.parent = parent
	return e
}

// WithMsg returns a copy of e carrying a more specific message. Code and status
// are kept, so the copy still matches e with errors.Is.
func (e ZError) WithMsg(msg string) ZError {
	e.msg = msg
	return e
}

func (e ZError) WithMsgf(format string, args ...any) ZError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithMeta returns a copy of e with key set to value. The receiver's metadata
// is never modified.
func (e ZError) WithMeta(key string, value any) ZError {
	meta := make(map[string]any, len(e.meta)+1)
	maps.Copy(meta, e.meta)
	meta[key] = value
	e.meta = meta
	return e
}

func (e ZError) Unwrap() error {
	return e.parent
}

// Is reports whether target is a ZError with the same code.
func (e ZError) Is(target error) bool {
	var t ZError
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

func (e ZError) Status() Status { return e.status }

func (e ZError) Code() string { return e.code }

func (e ZError) Msg() string { return e.msg }

// Meta returns the structured details attached with WithMeta, or nil.
func (e ZError) Meta() map[string]any { return e.meta }

func (e ZError) Parent() error { return e.parent }

func NewUnauthorized(code, msg string) ZError {
	return NewZError(nil, StatusUnauthorized, code, msg)
}

func NewForbidden(code, msg string) ZError {
	return NewZError(nil, StatusForbidden, code, msg)
}

func NewNotFound(code, msg string) ZError {
	return NewZError(nil, StatusNotFound, code, msg)
}

func NewBadRequest(code, msg string) ZError {
	return NewZError(nil, StatusBadRequest, code, msg)
}

func NewValidationFailed(code, msg string) ZError {
	return NewZError(nil, StatusValidationFailed, code, msg)
}
