//go:build !(cgo && ct400dll)

package yenista

import "github.com/iwtcode/ct400Adapter/yenista/model"

// NativeAvailable сообщает, собран ли бинарник с нативной библиотекой.
const NativeAvailable = false

func OpenDLL() (model.Library, error) {
	return nil, ErrNotBuilt
}
