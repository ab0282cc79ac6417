package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 必填字段缺失：客户端可修正，对应 400
	ErrValidation = errors.New("missing required fields")
	// ErrStorage 持久化失败：对应 500，细节仅记录日志
	ErrStorage = errors.New("storage failure")
)

// ValidationError 记录缺失或为空的字段
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation.Error(), e.Fields)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError 包装底层数据库错误
type StorageError struct {
	Op  string // insert / list / clear / count
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrStorage.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrStorage) 成立
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Storage 构造 StorageError，err 为 nil 时返回 nil
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
