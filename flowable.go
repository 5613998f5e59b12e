// Subscription and subscriber building blocks for rxreduce
// 需求协议的基础实现：订阅句柄与基础订阅者
package rxreduce

import (
	"sync/atomic"
)

// ============================================================================
// Subscription 基础实现
// ============================================================================

// subscriptionImpl Subscription的基础实现，需求交给onRequest处理
type subscriptionImpl struct {
	cancelled int32
	onRequest func(int64)
	onCancel  func()
}

// NewSubscription 创建新的Subscription
// onRequest在每次有效请求时调用，onCancel只在第一次取消时调用
func NewSubscription(onRequest func(n int64), onCancel func()) Subscription {
	return &subscriptionImpl{
		onRequest: onRequest,
		onCancel:  onCancel,
	}
}

// Request 请求指定数量的数据项，n<=0的请求被忽略
func (s *subscriptionImpl) Request(n int64) {
	if n <= 0 || s.IsCancelled() {
		return
	}

	if s.onRequest != nil {
		s.onRequest(n)
	}
}

// Cancel 取消订阅
func (s *subscriptionImpl) Cancel() {
	if atomic.CompareAndSwapInt32(&s.cancelled, 0, 1) {
		if s.onCancel != nil {
			s.onCancel()
		}
	}
}

// IsCancelled 检查是否已取消
func (s *subscriptionImpl) IsCancelled() bool {
	return atomic.LoadInt32(&s.cancelled) == 1
}

// ============================================================================
// BaseSubscriber 基础订阅者实现
// ============================================================================

// BaseSubscriber 基础订阅者，保存上游订阅并提供Request/Cancel辅助方法
// 操作符阶段通过嵌入它来管理上游订阅
type BaseSubscriber struct {
	subscription Subscription
}

// OnSubscribe 保存上游订阅；重复订阅时取消新的订阅并返回false
func (b *BaseSubscriber) OnSubscribe(subscription Subscription) bool {
	if b.subscription != nil {
		subscription.Cancel()
		return false
	}

	b.subscription = subscription
	return true
}

// Request 向上游请求数据
func (b *BaseSubscriber) Request(n int64) {
	if b.subscription != nil {
		b.subscription.Request(n)
	}
}

// Cancel 取消上游订阅
func (b *BaseSubscriber) Cancel() {
	if b.subscription != nil {
		b.subscription.Cancel()
	}
}

// Upstream 返回当前上游订阅，尚未订阅时为nil
func (b *BaseSubscriber) Upstream() Subscription {
	return b.subscription
}

// Release 释放上游订阅引用
func (b *BaseSubscriber) Release() {
	b.subscription = nil
}

// ============================================================================
// 终止状态
// ============================================================================

// terminal 终止状态标记，cancelled可跨goroutine读取
type terminal struct {
	cancelled int32
	done      bool
}

func (t *terminal) markCancelled() bool {
	return atomic.CompareAndSwapInt32(&t.cancelled, 0, 1)
}

// IsCancelled 检查是否已取消
func (t *terminal) IsCancelled() bool {
	return atomic.LoadInt32(&t.cancelled) == 1
}

// inactive 已取消或已终止
func (t *terminal) inactive() bool {
	return t.done || t.IsCancelled()
}
