// Pass-through operator stages for rxreduce
// 逐项传递的操作符阶段：OutputIn, Map, Filter, CompactMap
package rxreduce

import (
	"fmt"
)

// ============================================================================
// IndexRange 闭区间索引范围
// ============================================================================

// IndexRange 闭区间 [Lower, Upper]，索引从0开始
type IndexRange struct {
	Lower int
	Upper int
}

// ClosedRange 创建闭区间索引范围，对应 lower...upper
func ClosedRange(lower, upper int) IndexRange {
	return IndexRange{Lower: lower, Upper: upper}
}

// Contains 检查索引是否在范围内
func (r IndexRange) Contains(index int) bool {
	return index >= r.Lower && index <= r.Upper
}

// Valid 下界非负且不大于上界
func (r IndexRange) Valid() bool {
	return r.Lower >= 0 && r.Lower <= r.Upper
}

func (r IndexRange) String() string {
	return fmt.Sprintf("%d...%d", r.Lower, r.Upper)
}

// ============================================================================
// OutputIn
// ============================================================================

// OutputIn 按顺序发射索引落在范围内的每个值
// 越过上界后取消上游并完成；范围无效时以ErrInvalidRange失败
func OutputIn[T any](p Publisher[T], r IndexRange) Publisher[T] {
	if !r.Valid() {
		return Fail[T](fmt.Errorf("output(in: %s): %w", r, ErrInvalidRange))
	}

	return NewPublisher(func(subscriber Subscriber[T]) {
		subscriber.OnSubscribe(&outputInSubscriber[T]{
			downstream: subscriber,
			source:     p,
			bounds:     r,
		})
	})
}

// outputInSubscriber 传递下游需求，跳过的值会向上游补充请求
type outputInSubscriber[T any] struct {
	BaseSubscriber
	terminal
	downstream  Subscriber[T]
	source      Publisher[T]
	bounds      IndexRange
	index       int
	requested   int64
	outstanding int64
	subscribed  bool
}

// ===== 下游方向：Subscription =====

func (oi *outputInSubscriber[T]) Request(n int64) {
	if n <= 0 || oi.inactive() {
		return
	}

	oi.requested = addDemand(oi.requested, n)
	if !oi.subscribed {
		oi.subscribed = true
		oi.source.Subscribe(oi)
		return
	}
	if oi.Upstream() == nil {
		return
	}

	oi.outstanding = addDemand(oi.outstanding, n)
	oi.BaseSubscriber.Request(n)
}

func (oi *outputInSubscriber[T]) Cancel() {
	if !oi.markCancelled() {
		return
	}
	if !oi.done {
		oi.BaseSubscriber.Cancel()
	}
	oi.BaseSubscriber.Release()
}

// ===== 上游方向：Subscriber =====

func (oi *outputInSubscriber[T]) OnSubscribe(subscription Subscription) {
	if oi.inactive() {
		subscription.Cancel()
		return
	}
	if !oi.BaseSubscriber.OnSubscribe(subscription) {
		return
	}

	oi.outstanding = oi.requested
	subscription.Request(oi.requested)
}

func (oi *outputInSubscriber[T]) OnNext(value T) {
	if oi.inactive() {
		return
	}

	if oi.outstanding == 0 {
		oi.abort(ErrDemandExceeded)
		return
	}
	if oi.outstanding != Unlimited {
		oi.outstanding--
	}

	index := oi.index
	oi.index++

	if index < oi.bounds.Lower {
		if oi.outstanding != Unlimited {
			oi.outstanding++
			oi.BaseSubscriber.Request(1)
		}
		return
	}

	if oi.requested == 0 {
		oi.abort(ErrDemandExceeded)
		return
	}
	if oi.requested != Unlimited {
		oi.requested--
	}

	oi.downstream.OnNext(value)

	if index >= oi.bounds.Upper && !oi.inactive() {
		oi.done = true
		oi.BaseSubscriber.Cancel()
		oi.BaseSubscriber.Release()
		oi.downstream.OnComplete()
	}
}

func (oi *outputInSubscriber[T]) OnError(err error) {
	if oi.inactive() {
		return
	}
	oi.done = true
	oi.BaseSubscriber.Release()
	oi.downstream.OnError(err)
}

func (oi *outputInSubscriber[T]) OnComplete() {
	if oi.inactive() {
		return
	}
	oi.done = true
	oi.BaseSubscriber.Release()
	oi.downstream.OnComplete()
}

func (oi *outputInSubscriber[T]) abort(err error) {
	oi.done = true
	oi.BaseSubscriber.Cancel()
	oi.BaseSubscriber.Release()
	oi.downstream.OnError(err)
}

// ============================================================================
// Map / Filter / CompactMap
// ============================================================================

// Map 转换每个数据项
func Map[T, U any](p Publisher[T], transform func(T) U) Publisher[U] {
	return TryCompactMap(p, func(value T) (U, bool, error) {
		return transform(value), true, nil
	})
}

// TryMap 转换函数可返回错误，错误以失败信号终止
func TryMap[T, U any](p Publisher[T], transform func(T) (U, error)) Publisher[U] {
	return TryCompactMap(p, func(value T) (U, bool, error) {
		u, err := transform(value)
		return u, true, err
	})
}

// Filter 只保留满足谓词的数据项
func Filter[T any](p Publisher[T], predicate func(T) bool) Publisher[T] {
	return TryCompactMap(p, func(value T) (T, bool, error) {
		return value, predicate(value), nil
	})
}

// CompactMap 转换每个数据项，ok=false的结果被丢弃
func CompactMap[T, U any](p Publisher[T], transform func(T) (U, bool)) Publisher[U] {
	return TryCompactMap(p, func(value T) (U, bool, error) {
		u, ok := transform(value)
		return u, ok, nil
	})
}

// TryCompactMap Map/Filter/CompactMap的通用形式
func TryCompactMap[T, U any](p Publisher[T], transform func(T) (U, bool, error)) Publisher[U] {
	return NewPublisher(func(subscriber Subscriber[U]) {
		p.Subscribe(&compactMapSubscriber[T, U]{
			downstream: subscriber,
			transform:  transform,
		})
	})
}

// compactMapSubscriber 直接把上游订阅交给下游，被丢弃的值向上游补充一个请求
type compactMapSubscriber[T, U any] struct {
	BaseSubscriber
	done       bool
	downstream Subscriber[U]
	transform  func(T) (U, bool, error)
}

func (cs *compactMapSubscriber[T, U]) OnSubscribe(subscription Subscription) {
	if cs.BaseSubscriber.OnSubscribe(subscription) {
		cs.downstream.OnSubscribe(subscription)
	}
}

func (cs *compactMapSubscriber[T, U]) OnNext(value T) {
	if cs.done {
		return
	}

	var result U
	var ok bool
	var err error
	if perr := SafeExecute(func() { result, ok, err = cs.transform(value) }); perr != nil {
		err = perr
	}

	if err != nil {
		cs.done = true
		cs.Cancel()
		cs.downstream.OnError(err)
		return
	}

	if !ok {
		cs.Request(1)
		return
	}

	cs.downstream.OnNext(result)
}

func (cs *compactMapSubscriber[T, U]) OnError(err error) {
	if cs.done {
		return
	}
	cs.done = true
	cs.downstream.OnError(err)
}

func (cs *compactMapSubscriber[T, U]) OnComplete() {
	if cs.done {
		return
	}
	cs.done = true
	cs.downstream.OnComplete()
}
