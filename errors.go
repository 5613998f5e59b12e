package rxreduce

import (
	"errors"
	"fmt"
)

// ============================================================================
// 错误类型
// ============================================================================

var (
	// ErrInvalidRange OutputIn的索引范围无效（下界为负或下界大于上界）
	ErrInvalidRange = errors.New("rxreduce: invalid index range")
	// ErrInvalidStride Stride的步长为0
	ErrInvalidStride = errors.New("rxreduce: stride step must not be zero")
	// ErrDemandExceeded 上游发射的数据超过了请求的需求
	ErrDemandExceeded = errors.New("rxreduce: upstream emitted more values than requested")
	// ErrEmpty 流完成但没有发射任何值
	ErrEmpty = errors.New("rxreduce: publisher completed without a value")
	// ErrIncomplete 订阅返回时流尚未终止
	ErrIncomplete = errors.New("rxreduce: publisher did not terminate synchronously")
)

// PanicError 用户函数（比较器、谓词、归约函数）发生panic时的错误
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("rxreduce: recovered panic: %v", e.Value)
}

// Unwrap 当panic的值本身是error时返回该error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
