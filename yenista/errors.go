package yenista

import (
	"errors"
	"fmt"

	"github.com/iwtcode/ct400Adapter/yenista/model"
)

var (
	ErrNotBuilt             = errors.New("CT400_lib binding is not built into this binary (build with cgo and -tags ct400dll)")
	ErrInvalidHandle        = errors.New("CT400 session is not initialized")
	ErrFirmwareIncompatible = errors.New("DSP firmware version not compatible")
	ErrNotConnected         = errors.New("CT400 is not connected")
	ErrScanFailed           = errors.New("scan failed")
	ErrScanRunning          = errors.New("scan already in progress")
	ErrNoScan               = errors.New("no scan in progress")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// CallError - ошибка вызова функции CT400_lib.
type CallError struct {
	Func    string
	Code    int32
	Message string
	kind    error
}

func (e *CallError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("CT400_%s rc=%d: %s", e.Func, e.Code, e.Message)
	}
	return fmt.Sprintf("CT400_%s rc=%d", e.Func, e.Code)
}

func (e *CallError) Unwrap() error { return e.kind }

func callError(fn string, rc int32) *CallError {
	return &CallError{Func: fn, Code: rc}
}

// check переводит код возврата "0 / -1" в ошибку.
func check(fn string, rc int32) error {
	if rc == model.RcOK {
		return nil
	}
	return callError(fn, rc)
}

// initError переводит iError функции CT400_Init в ошибку.
func initError(code int32) error {
	e := &CallError{Func: "Init", Code: code}
	if code == model.ErrFirmwareIncompatible {
		e.Message = ErrFirmwareIncompatible.Error()
		e.kind = ErrFirmwareIncompatible
	}
	return e
}

// scanError - ошибка, возвращенная CT400_ScanWaitEnd.
func scanError(code int32, text string) error {
	return &CallError{Func: "ScanWaitEnd", Code: code, Message: text, kind: ErrScanFailed}
}
