// Reducing and query operators for rxreduce
// 归约/查询操作符：Min, Max, First, Last, OutputAt, Count, Contains, AllSatisfy, Reduce
package rxreduce

import (
	"cmp"
)

// ============================================================================
// 归约引擎
// ============================================================================

// accumulator 归约阶段私有的累加状态，每次订阅创建一个
type accumulator[T, R any] interface {
	// next 消费一个上游值；stop=true表示结果已确定，需要取消上游
	next(value T) (stop bool, err error)
	// result 返回最终结果，ok=false表示不发射任何值
	result() (value R, ok bool)
}

// reducePublisher 归约阶段：消费上游并最多发射一个结果
type reducePublisher[T, R any] struct {
	upstream Publisher[T]
	demand   int64
	create   func() accumulator[T, R]
}

func newReduce[T, R any](upstream Publisher[T], demand int64, create func() accumulator[T, R]) Publisher[R] {
	return &reducePublisher[T, R]{
		upstream: upstream,
		demand:   demand,
		create:   create,
	}
}

// Subscribe 订阅Subscriber，上游在下游第一次请求时才被订阅
func (p *reducePublisher[T, R]) Subscribe(subscriber Subscriber[R]) {
	rs := &reduceSubscriber[T, R]{
		downstream:     subscriber,
		source:         p.upstream,
		upstreamDemand: p.demand,
		acc:            p.create(),
	}
	subscriber.OnSubscribe(rs)
}

// reduceSubscriber 既是上游的订阅者，也是交给下游的订阅句柄
type reduceSubscriber[T, R any] struct {
	BaseSubscriber
	terminal
	downstream     Subscriber[R]
	source         Publisher[T]
	upstreamDemand int64
	outstanding    int64
	acc            accumulator[T, R]
	subscribed     bool
}

// ===== 下游方向：Subscription =====

func (rs *reduceSubscriber[T, R]) Request(n int64) {
	if n <= 0 || rs.inactive() || rs.subscribed {
		return
	}

	rs.subscribed = true
	rs.source.Subscribe(rs)
}

func (rs *reduceSubscriber[T, R]) Cancel() {
	if !rs.markCancelled() {
		return
	}
	if !rs.done {
		rs.BaseSubscriber.Cancel()
	}
	rs.release()
}

// ===== 上游方向：Subscriber =====

func (rs *reduceSubscriber[T, R]) OnSubscribe(subscription Subscription) {
	if rs.inactive() {
		subscription.Cancel()
		return
	}
	if !rs.BaseSubscriber.OnSubscribe(subscription) {
		return
	}

	rs.outstanding = rs.upstreamDemand
	subscription.Request(rs.upstreamDemand)
}

func (rs *reduceSubscriber[T, R]) OnNext(value T) {
	if rs.inactive() {
		return
	}

	if rs.outstanding == 0 {
		rs.BaseSubscriber.Cancel()
		rs.fail(ErrDemandExceeded)
		return
	}
	if rs.outstanding != Unlimited {
		rs.outstanding--
	}

	var stop bool
	var err error
	if perr := SafeExecute(func() { stop, err = rs.acc.next(value) }); perr != nil {
		err = perr
	}

	if err != nil {
		rs.BaseSubscriber.Cancel()
		rs.fail(err)
		return
	}

	if stop {
		rs.BaseSubscriber.Cancel()
		rs.complete()
		return
	}

	if rs.outstanding == 0 {
		rs.outstanding = rs.upstreamDemand
		rs.BaseSubscriber.Request(rs.upstreamDemand)
	}
}

func (rs *reduceSubscriber[T, R]) OnError(err error) {
	if rs.inactive() {
		return
	}
	rs.fail(err)
}

func (rs *reduceSubscriber[T, R]) OnComplete() {
	if rs.inactive() {
		return
	}
	rs.complete()
}

func (rs *reduceSubscriber[T, R]) complete() {
	rs.done = true
	value, ok := rs.acc.result()
	rs.release()

	if ok {
		rs.downstream.OnNext(value)
	}
	if !rs.IsCancelled() {
		rs.downstream.OnComplete()
	}
}

func (rs *reduceSubscriber[T, R]) fail(err error) {
	rs.done = true
	rs.release()
	rs.downstream.OnError(err)
}

func (rs *reduceSubscriber[T, R]) release() {
	rs.acc = nil
	rs.BaseSubscriber.Release()
}

// ============================================================================
// 累加器实现
// ============================================================================

// comparisonAccumulator Min/Max共用：better(candidate, current)为true时替换当前值
type comparisonAccumulator[T any] struct {
	better  func(candidate, current T) (bool, error)
	current T
	seen    bool
}

func (a *comparisonAccumulator[T]) next(value T) (bool, error) {
	if !a.seen {
		a.current, a.seen = value, true
		return false, nil
	}
	better, err := a.better(value, a.current)
	if err != nil {
		return false, err
	}
	if better {
		a.current = value
	}
	return false, nil
}

func (a *comparisonAccumulator[T]) result() (T, bool) {
	return a.current, a.seen
}

// matchAccumulator First/Last共用
type matchAccumulator[T any] struct {
	predicate func(T) (bool, error)
	stopOnHit bool
	current   T
	seen      bool
}

func (a *matchAccumulator[T]) next(value T) (bool, error) {
	ok, err := a.predicate(value)
	if err != nil || !ok {
		return false, err
	}
	a.current, a.seen = value, true
	return a.stopOnHit, nil
}

func (a *matchAccumulator[T]) result() (T, bool) {
	return a.current, a.seen
}

// indexAccumulator OutputAt使用，计数到目标索引
type indexAccumulator[T any] struct {
	target  int
	index   int
	current T
	seen    bool
}

func (a *indexAccumulator[T]) next(value T) (bool, error) {
	if a.index == a.target {
		a.current, a.seen = value, true
		return true, nil
	}
	a.index++
	return false, nil
}

func (a *indexAccumulator[T]) result() (T, bool) {
	return a.current, a.seen
}

type countAccumulator[T any] struct {
	count int
}

func (a *countAccumulator[T]) next(T) (bool, error) {
	a.count++
	return false, nil
}

func (a *countAccumulator[T]) result() (int, bool) {
	return a.count, true
}

// verdictAccumulator Contains/AllSatisfy共用
// 谓词结果等于decisive时立即以verdict结束，否则完成时以!verdict结束
type verdictAccumulator[T any] struct {
	predicate func(T) (bool, error)
	decisive  bool
	verdict   bool
	decided   bool
}

func (a *verdictAccumulator[T]) next(value T) (bool, error) {
	ok, err := a.predicate(value)
	if err != nil {
		return false, err
	}
	if ok == a.decisive {
		a.decided = true
		return true, nil
	}
	return false, nil
}

func (a *verdictAccumulator[T]) result() (bool, bool) {
	if a.decided {
		return a.verdict, true
	}
	return !a.verdict, true
}

type foldAccumulator[T, R any] struct {
	combine func(R, T) (R, error)
	current R
}

func (a *foldAccumulator[T, R]) next(value T) (bool, error) {
	next, err := a.combine(a.current, value)
	if err != nil {
		return false, err
	}
	a.current = next
	return false, nil
}

func (a *foldAccumulator[T, R]) result() (R, bool) {
	return a.current, true
}

// ============================================================================
// Min / Max
// ============================================================================

// Min 上游完成时发射最小值；空流只发送完成信号
func Min[T cmp.Ordered](p Publisher[T]) Publisher[T] {
	return MinBy(p, cmp.Less[T])
}

// MinBy 使用less比较器求最小值，相等的值保留先出现的
func MinBy[T any](p Publisher[T], less func(a, b T) bool) Publisher[T] {
	return TryMinBy(p, infallibleLess(less))
}

// TryMinBy 比较器可返回错误，错误以失败信号终止
func TryMinBy[T any](p Publisher[T], less func(a, b T) (bool, error)) Publisher[T] {
	return newReduce(p, Unlimited, func() accumulator[T, T] {
		return &comparisonAccumulator[T]{better: less}
	})
}

// Max 上游完成时发射最大值；空流只发送完成信号
func Max[T cmp.Ordered](p Publisher[T]) Publisher[T] {
	return MaxBy(p, cmp.Less[T])
}

// MaxBy 使用less比较器求最大值，相等的值保留先出现的
func MaxBy[T any](p Publisher[T], less func(a, b T) bool) Publisher[T] {
	return TryMaxBy(p, infallibleLess(less))
}

// TryMaxBy 比较器可返回错误，错误以失败信号终止
func TryMaxBy[T any](p Publisher[T], less func(a, b T) (bool, error)) Publisher[T] {
	return newReduce(p, Unlimited, func() accumulator[T, T] {
		return &comparisonAccumulator[T]{
			better: func(candidate, current T) (bool, error) {
				return less(current, candidate)
			},
		}
	})
}

// ============================================================================
// First / Last
// ============================================================================

// First 只请求一个值，收到后取消上游并发射该值
func First[T any](p Publisher[T]) Publisher[T] {
	return newReduce(p, 1, func() accumulator[T, T] {
		return &matchAccumulator[T]{predicate: always[T], stopOnHit: true}
	})
}

// FirstWhere 发射第一个满足谓词的值并取消上游
func FirstWhere[T any](p Publisher[T], predicate func(T) bool) Publisher[T] {
	return TryFirstWhere(p, infallible(predicate))
}

// TryFirstWhere 谓词可返回错误
func TryFirstWhere[T any](p Publisher[T], predicate func(T) (bool, error)) Publisher[T] {
	return newReduce(p, Unlimited, func() accumulator[T, T] {
		return &matchAccumulator[T]{predicate: predicate, stopOnHit: true}
	})
}

// Last 上游完成时发射最后一个值
func Last[T any](p Publisher[T]) Publisher[T] {
	return TryLastWhere(p, always[T])
}

// LastWhere 上游完成时发射最后一个满足谓词的值
func LastWhere[T any](p Publisher[T], predicate func(T) bool) Publisher[T] {
	return TryLastWhere(p, infallible(predicate))
}

// TryLastWhere 谓词可返回错误
func TryLastWhere[T any](p Publisher[T], predicate func(T) (bool, error)) Publisher[T] {
	return newReduce(p, Unlimited, func() accumulator[T, T] {
		return &matchAccumulator[T]{predicate: predicate}
	})
}

// ============================================================================
// OutputAt / Count
// ============================================================================

// OutputAt 发射索引为index（从0开始）的值后取消上游；越界时不发射任何值
func OutputAt[T any](p Publisher[T], index int) Publisher[T] {
	return newReduce(p, Unlimited, func() accumulator[T, T] {
		return &indexAccumulator[T]{target: index}
	})
}

// Count 上游完成时发射数据项数量，空流发射0
func Count[T any](p Publisher[T]) Publisher[int] {
	return newReduce(p, Unlimited, func() accumulator[T, int] {
		return &countAccumulator[T]{}
	})
}

// ============================================================================
// Contains / AllSatisfy
// ============================================================================

// Contains 出现x时发射true并取消上游，否则完成时发射false
func Contains[T comparable](p Publisher[T], x T) Publisher[bool] {
	return ContainsWhere(p, func(v T) bool {
		return v == x
	})
}

// ContainsWhere 出现满足谓词的值时发射true并取消上游，否则完成时发射false
func ContainsWhere[T any](p Publisher[T], predicate func(T) bool) Publisher[bool] {
	return TryContainsWhere(p, infallible(predicate))
}

// TryContainsWhere 谓词可返回错误
func TryContainsWhere[T any](p Publisher[T], predicate func(T) (bool, error)) Publisher[bool] {
	return newReduce(p, Unlimited, func() accumulator[T, bool] {
		return &verdictAccumulator[T]{predicate: predicate, decisive: true, verdict: true}
	})
}

// AllSatisfy 第一个不满足谓词的值出现时发射false并取消上游，否则完成时发射true
func AllSatisfy[T any](p Publisher[T], predicate func(T) bool) Publisher[bool] {
	return TryAllSatisfy(p, infallible(predicate))
}

// TryAllSatisfy 谓词可返回错误
func TryAllSatisfy[T any](p Publisher[T], predicate func(T) (bool, error)) Publisher[bool] {
	return newReduce(p, Unlimited, func() accumulator[T, bool] {
		return &verdictAccumulator[T]{predicate: predicate, decisive: false, verdict: false}
	})
}

// ============================================================================
// Reduce
// ============================================================================

// Reduce 以initial为初值对上游做左折叠，完成时发射累加结果
func Reduce[T, R any](p Publisher[T], initial R, combine func(R, T) R) Publisher[R] {
	return TryReduce(p, initial, func(acc R, value T) (R, error) {
		return combine(acc, value), nil
	})
}

// TryReduce 归约函数可返回错误
func TryReduce[T, R any](p Publisher[T], initial R, combine func(R, T) (R, error)) Publisher[R] {
	return newReduce(p, Unlimited, func() accumulator[T, R] {
		return &foldAccumulator[T, R]{combine: combine, current: initial}
	})
}

// ============================================================================
// 辅助函数
// ============================================================================

func always[T any](T) (bool, error) {
	return true, nil
}

func infallible[T any](predicate func(T) bool) func(T) (bool, error) {
	return func(value T) (bool, error) {
		return predicate(value), nil
	}
}

func infallibleLess[T any](less func(a, b T) bool) func(a, b T) (bool, error) {
	return func(a, b T) (bool, error) {
		return less(a, b), nil
	}
}
