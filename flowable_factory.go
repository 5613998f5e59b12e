// Publisher factory functions for rxreduce
// 发布者工厂函数：将有限序列包装为按需推送的数据流
package rxreduce

import (
	"fmt"
	"math"
)

// ============================================================================
// 基础工厂函数
// ============================================================================

// FromSlice 从切片创建发布者
// 订阅后按需求依次推送每个元素，然后发送完成信号
func FromSlice[T any](values []T) Publisher[T] {
	return fromIndexed(uint64(len(values)), func(i uint64) T {
		return values[i]
	})
}

// Just 从给定的值创建发布者
func Just[T any](values ...T) Publisher[T] {
	return FromSlice(values)
}

// Empty 创建一个空的发布者，订阅后立即完成
func Empty[T any]() Publisher[T] {
	return FromSlice[T](nil)
}

// Fail 创建一个订阅后立即发送错误的发布者
func Fail[T any](err error) Publisher[T] {
	return NewPublisher(func(subscriber Subscriber[T]) {
		subscription := NewSubscription(nil, nil)
		subscriber.OnSubscribe(subscription)
		if !subscription.IsCancelled() {
			subscriber.OnError(err)
		}
	})
}

// Range 创建发射 [start, start+count) 整数的发布者
// count会被截断，使最后一个值不超过math.MaxInt
func Range(start, count int) Publisher[int] {
	if count < 0 {
		count = 0
	}
	if count > 0 && start > math.MaxInt-(count-1) {
		count = math.MaxInt - start + 1
	}
	return fromIndexed(uint64(count), func(i uint64) int {
		return int(uint64(start) + i)
	})
}

// Stride 创建从from开始、按by步进、不包含to的整数序列
// 例如 Stride(0, 5, 2) 发射 0, 2, 4
func Stride(from, to, by int) Publisher[int] {
	if by == 0 {
		return Fail[int](fmt.Errorf("stride(%d, %d, %d): %w", from, to, by, ErrInvalidStride))
	}

	// 距离与步长按无符号计算，跨越整个int区间时也不会溢出
	var distance, step uint64
	switch {
	case by > 0 && to > from:
		distance, step = uint64(to)-uint64(from), uint64(by)
	case by < 0 && to < from:
		distance, step = uint64(from)-uint64(to), -uint64(by)
	}

	var count uint64
	if step > 0 {
		count = distance / step
		if distance%step != 0 {
			count++
		}
	}

	return fromIndexed(count, func(i uint64) int {
		return int(uint64(from) + i*uint64(by))
	})
}

func fromIndexed[T any](length uint64, at func(uint64) T) Publisher[T] {
	return NewPublisher(func(subscriber Subscriber[T]) {
		subscription := &indexedSubscription[T]{
			subscriber: subscriber,
			length:     length,
			at:         at,
		}
		subscriber.OnSubscribe(subscription)
		subscription.drain()
	})
}

// ============================================================================
// indexedSubscription 序列订阅
// ============================================================================

// indexedSubscription 按索引推送序列元素的订阅
// 在OnNext中调用Request只会累加需求，由外层循环继续推送
type indexedSubscription[T any] struct {
	terminal
	subscriber Subscriber[T]
	length     uint64
	at         func(uint64) T
	index      uint64
	requested  int64
	emitting   bool
}

// Request 请求指定数量的数据项
func (s *indexedSubscription[T]) Request(n int64) {
	if n <= 0 || s.inactive() {
		return
	}

	s.requested = addDemand(s.requested, n)
	s.drain()
}

// Cancel 取消订阅并释放序列引用
func (s *indexedSubscription[T]) Cancel() {
	if s.markCancelled() {
		s.release()
	}
}

func (s *indexedSubscription[T]) drain() {
	if s.emitting {
		return
	}
	s.emitting = true
	defer func() {
		s.emitting = false
	}()

	for !s.inactive() {
		if s.index >= s.length {
			s.done = true
			subscriber := s.subscriber
			s.release()
			subscriber.OnComplete()
			return
		}

		if s.requested == 0 {
			return
		}

		value := s.at(s.index)
		s.index++
		if s.requested != Unlimited {
			s.requested--
		}

		s.subscriber.OnNext(value)
	}
}

func (s *indexedSubscription[T]) release() {
	s.at = nil
	s.requested = 0
}
