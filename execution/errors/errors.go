// Package errors defines the execution core's error taxonomy:
// a small fixed set of kinds, not type names, so callers can dispatch on
// Code rather than matching concrete Go error types.
package errors

import (
	"encoding/json"
	"fmt"
)

// Code is one of the seven taxonomy kinds.
type Code uint32

const (
	ErrorCodeUnauthorized Code = iota + 1
	ErrorCodeAlreadyExists
	ErrorCodeNotFound
	ErrorCodeBadInput
	ErrorCodeAuthFailure
	ErrorCodeSandboxFailure
	ErrorCodeInternal
)

var codeNames = map[Code]string{
	ErrorCodeUnauthorized:   "unauthorized",
	ErrorCodeAlreadyExists:  "already_exists",
	ErrorCodeNotFound:       "not_found",
	ErrorCodeBadInput:       "bad_input",
	ErrorCodeAuthFailure:    "auth_failure",
	ErrorCodeSandboxFailure: "sandbox_failure",
	ErrorCodeInternal:       "internal",
}

var namesToCode = func() map[string]Code {
	m := make(map[string]Code, len(codeNames))
	for c, name := range codeNames {
		m[name] = c
	}
	return m
}()

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}

// Error lets a bare Code act as an error in its own right, for call sites
// that don't need a message (e.g. a sentinel comparison).
func (c Code) Error() string { return c.String() }

func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Code) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	code, ok := namesToCode[s]
	if !ok {
		return fmt.Errorf("errors: unknown error code %q", s)
	}
	*c = code
	return nil
}

// Exception is the structured error value carried out of the execution
// core: a taxonomy Code plus a human-readable message. Reply-caught
// errors lose this structure, surfacing only Error()'s
// string form.
type Exception struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func NewException(code Code, message string) *Exception {
	return &Exception{Code: code, Message: message}
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unauthorized reports a permission-check failure (upload, instantiate,
// migrate owner check).
func Unauthorized(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeUnauthorized, fmt.Sprintf(format, args...))
}

// AlreadyExists reports a duplicate code hash or address collision.
func AlreadyExists(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeAlreadyExists, fmt.Sprintf(format, args...))
}

// NotFound reports an account, code, or storage item absent when
// required.
func NotFound(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeNotFound, fmt.Sprintf(format, args...))
}

// BadInput reports a malformed message, malformed key/value bytes, or bad
// signature format.
func BadInput(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeBadInput, fmt.Sprintf(format, args...))
}

// AuthFailure reports a signature mismatch, wrong sequence, or unknown
// key type.
func AuthFailure(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeAuthFailure, fmt.Sprintf(format, args...))
}

// SandboxFailure reports gas exhaustion, a deterministic guest trap, or
// host-function misuse by the guest.
func SandboxFailure(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeSandboxFailure, fmt.Sprintf(format, args...))
}

// Internal reports an inconsistency that should never occur (e.g. an
// account referencing missing code) -- fatal, not meant to be recovered
// from within a block.
func Internal(format string, args ...interface{}) *Exception {
	return NewException(ErrorCodeInternal, fmt.Sprintf(format, args...))
}

// Is reports whether err is an *Exception carrying code.
func Is(err error, code Code) bool {
	ex, ok := err.(*Exception)
	return ok && ex.Code == code
}
