// Terminal subscribers and cancellation handles for rxreduce
// 终端订阅者与取消句柄：Sink, Cancellable, Bag
package rxreduce

import (
	"sync"
)

// ============================================================================
// Cancellable 取消句柄
// ============================================================================

// Cancellable 可取消的句柄，Cancel可重复调用
type Cancellable struct {
	once     sync.Once
	mu       sync.Mutex
	onCancel func()
	canceled bool
}

// NewCancellable 创建取消句柄，onCancel只会被调用一次
func NewCancellable(onCancel func()) *Cancellable {
	return &Cancellable{onCancel: onCancel}
}

// Cancel 取消
func (c *Cancellable) Cancel() {
	c.once.Do(func() {
		c.mu.Lock()
		c.canceled = true
		onCancel := c.onCancel
		c.onCancel = nil
		c.mu.Unlock()

		if onCancel != nil {
			onCancel()
		}
	})
}

// IsCancelled 检查是否已取消
func (c *Cancellable) IsCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}

// Store 将句柄加入bag，随bag一起取消
func (c *Cancellable) Store(bag *Bag) {
	bag.Add(c)
}

// ============================================================================
// Bag 句柄集合
// ============================================================================

// Bag 组合式取消句柄集合，零值可直接使用
type Bag struct {
	mu        sync.Mutex
	cancelled bool
	items     []*Cancellable
}

// Add 添加句柄；bag已取消时立即取消该句柄
func (b *Bag) Add(c *Cancellable) {
	if c == nil {
		return
	}

	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		c.Cancel()
		return
	}
	b.items = append(b.items, c)
	b.mu.Unlock()
}

// Cancel 取消所有句柄
func (b *Bag) Cancel() {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		return
	}
	b.cancelled = true
	items := b.items
	b.items = nil
	b.mu.Unlock()

	for _, item := range items {
		item.Cancel()
	}
}

// Len 返回句柄数量
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// IsCancelled 检查是否已取消
func (b *Bag) IsCancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelled
}

// ============================================================================
// Sink
// ============================================================================

// Sink 订阅发布者并请求无界需求
// receiveValue对每个值调用，receiveCompletion在终止时调用一次，二者都可为nil
func Sink[T any](p Publisher[T], receiveCompletion func(Completion), receiveValue func(T)) *Cancellable {
	s := &sinkSubscriber[T]{
		receiveCompletion: receiveCompletion,
		receiveValue:      receiveValue,
	}
	s.handle = NewCancellable(s.cancel)
	p.Subscribe(s)
	return s.handle
}

// SinkValues 只关心值的Sink
func SinkValues[T any](p Publisher[T], receiveValue func(T)) *Cancellable {
	return Sink(p, nil, receiveValue)
}

type sinkSubscriber[T any] struct {
	BaseSubscriber
	terminal
	handle            *Cancellable
	receiveCompletion func(Completion)
	receiveValue      func(T)
}

func (s *sinkSubscriber[T]) OnSubscribe(subscription Subscription) {
	if s.inactive() {
		subscription.Cancel()
		return
	}
	if !s.BaseSubscriber.OnSubscribe(subscription) {
		return
	}
	subscription.Request(Unlimited)
}

func (s *sinkSubscriber[T]) OnNext(value T) {
	if s.inactive() {
		return
	}
	if s.receiveValue != nil {
		s.receiveValue(value)
	}
}

func (s *sinkSubscriber[T]) OnError(err error) {
	s.terminate(Failed(err))
}

func (s *sinkSubscriber[T]) OnComplete() {
	s.terminate(Finished)
}

func (s *sinkSubscriber[T]) terminate(completion Completion) {
	if s.inactive() {
		return
	}
	s.done = true
	s.BaseSubscriber.Release()

	if s.receiveCompletion != nil {
		s.receiveCompletion(completion)
	}
	s.receiveValue = nil
	s.receiveCompletion = nil
}

func (s *sinkSubscriber[T]) cancel() {
	if !s.markCancelled() {
		return
	}
	if !s.done {
		s.BaseSubscriber.Cancel()
	}
	s.BaseSubscriber.Release()
}
