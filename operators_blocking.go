// Collecting helpers for rxreduce
// 收集操作：把同步发布者的结果取回为普通的Go返回值
package rxreduce

// ============================================================================
// Collect / AwaitValue
// ============================================================================

// Collect 订阅并收集全部值
// 上游失败时返回已收集的值和错误；Subscribe返回时仍未终止则返回ErrIncomplete
func Collect[T any](p Publisher[T]) ([]T, error) {
	var values []T
	var completion *Completion

	handle := Sink(p,
		func(c Completion) {
			completion = &c
		},
		func(value T) {
			values = append(values, value)
		},
	)

	if completion == nil {
		handle.Cancel()
		return values, ErrIncomplete
	}
	return values, completion.Err()
}

// AwaitValue 订阅并返回第一个值，之后取消上游
// 没有任何值就完成时返回ErrEmpty
func AwaitValue[T any](p Publisher[T]) (T, error) {
	var zero T

	values, err := Collect(First(p))
	if len(values) > 0 {
		return values[0], nil
	}
	if err != nil {
		return zero, err
	}
	return zero, ErrEmpty
}
