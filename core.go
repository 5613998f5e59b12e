// Package rxreduce provides a synchronous reactive-streams core with reducing operators
// 同步响应式流核心库，专注于归约与查询类操作符（Min、Max、First、Last、Count、Reduce等）
package rxreduce

import (
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================================
// 核心类型定义
// ============================================================================

// Unlimited 表示无界需求，累计需求达到该值后不再递减
const Unlimited int64 = math.MaxInt64

// Subscription 订阅接口，连接一个发布者与一个订阅者，支持需求管理与取消
type Subscription interface {
	// Request 追加请求n个数据项
	Request(n int64)
	// Cancel 取消订阅，之后不会再收到任何信号
	Cancel()
	// IsCancelled 检查是否已取消
	IsCancelled() bool
}

// Subscriber 订阅者接口，接收数据项与终止信号
type Subscriber[T any] interface {
	// OnSubscribe 订阅开始时调用，且只调用一次
	OnSubscribe(subscription Subscription)
	// OnNext 接收到新数据时调用
	OnNext(value T)
	// OnError 发生错误时调用（终止信号）
	OnError(err error)
	// OnComplete 数据流完成时调用（终止信号）
	OnComplete()
}

// Publisher 发布者接口，每次Subscribe都会启动一次独立的运行
type Publisher[T any] interface {
	Subscribe(subscriber Subscriber[T])
}

// PublisherFunc 函数形式的发布者
type PublisherFunc[T any] func(subscriber Subscriber[T])

// Subscribe 订阅Subscriber
func (f PublisherFunc[T]) Subscribe(subscriber Subscriber[T]) {
	f(subscriber)
}

// NewPublisher 从订阅函数创建发布者
func NewPublisher[T any](source func(subscriber Subscriber[T])) Publisher[T] {
	return PublisherFunc[T](source)
}

// ============================================================================
// 终止信号
// ============================================================================

// Completion 终止信号：finished 或 failed(error)
type Completion struct {
	err error
}

// Finished 正常完成
var Finished = Completion{}

// Failed 创建携带错误的终止信号
func Failed(err error) Completion {
	return Completion{err: err}
}

// IsFinished 是否正常完成
func (c Completion) IsFinished() bool {
	return c.err == nil
}

// Err 返回失败原因，正常完成时为nil
func (c Completion) Err() error {
	return c.err
}

func (c Completion) String() string {
	if c.err == nil {
		return "finished"
	}
	return fmt.Sprintf("failure(%v)", c.err)
}

// ============================================================================
// 工具函数
// ============================================================================

// SafeExecute 安全执行函数，捕获panic并转换为*PanicError
func SafeExecute(action func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	action()
	return nil
}

// addDemand 累加需求，溢出时饱和到Unlimited
func addDemand(current, n int64) int64 {
	if current == Unlimited || n == Unlimited {
		return Unlimited
	}
	sum := current + n
	if sum < 0 {
		return Unlimited
	}
	return sum
}

// ============================================================================
// 配置选项
// ============================================================================

// Option 配置选项接口
type Option interface {
	Apply(config *Config)
}

// OptionFunc 函数形式的配置选项
type OptionFunc func(config *Config)

// Apply 应用配置
func (f OptionFunc) Apply(config *Config) {
	f(config)
}

// Config 配置结构，供Print和Instrument等辅助阶段使用
type Config struct {
	Logger          *zerolog.Logger
	Writer          io.Writer
	SubscriptionIDs bool
	Attributes      []attribute.KeyValue
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{}
}

func newConfig(options ...Option) *Config {
	config := DefaultConfig()
	for _, opt := range options {
		if opt != nil {
			opt.Apply(config)
		}
	}
	return config
}

// WithLogger 指定Print使用的日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return OptionFunc(func(config *Config) {
		config.Logger = &logger
	})
}

// WithWriter 指定Print输出的目标，按纯文本逐行输出
func WithWriter(w io.Writer) Option {
	return OptionFunc(func(config *Config) {
		config.Writer = w
	})
}

// WithSubscriptionIDs 为每次订阅的日志附加唯一的subscription字段
func WithSubscriptionIDs() Option {
	return OptionFunc(func(config *Config) {
		config.SubscriptionIDs = true
	})
}

// WithAttributes 为Instrument记录的指标附加属性
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return OptionFunc(func(config *Config) {
		config.Attributes = append(config.Attributes, attrs...)
	})
}
