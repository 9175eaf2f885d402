package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 存储层通用错误 ──

var (
	// ErrAlreadyExists 写入会破坏唯一键约束
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("entity does not exist")
)

// ContractViolation 调用方违反接口契约（编程错误，不可恢复），以 panic 值抛出
type ContractViolation struct {
	Message string
}

func (e *ContractViolation) Error() string { return e.Message }

// Violation 构造契约违例
func Violation(format string, args ...interface{}) *ContractViolation {
	return &ContractViolation{Message: fmt.Sprintf(format, args...)}
}

// AsViolation 从 recover() 的返回值中提取契约违例
func AsViolation(r interface{}) (*ContractViolation, bool) {
	v, ok := r.(*ContractViolation)
	return v, ok
}
