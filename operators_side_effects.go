// Side effect operators for rxreduce
// 副作用操作符：HandleEvents 与 Print
package rxreduce

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xinjiayu/rxreduce/internal/logger"
)

// ============================================================================
// HandleEvents
// ============================================================================

// Events 协议事件回调，均为可选
type Events[T any] struct {
	ReceiveSubscription func(subscription Subscription)
	ReceiveOutput       func(value T)
	ReceiveCompletion   func(completion Completion)
	ReceiveCancel       func()
	ReceiveRequest      func(n int64)
}

// HandleEvents 在数据流经过时执行回调，不改变任何值或信号
func HandleEvents[T any](p Publisher[T], events Events[T]) Publisher[T] {
	return NewPublisher(func(subscriber Subscriber[T]) {
		p.Subscribe(&eventsSubscriber[T]{
			downstream: subscriber,
			events:     events,
		})
	})
}

// eventsSubscriber 包装上游订阅，拦截Request和Cancel
type eventsSubscriber[T any] struct {
	BaseSubscriber
	terminal
	downstream Subscriber[T]
	events     Events[T]
}

// ===== 下游方向：Subscription =====

func (es *eventsSubscriber[T]) Request(n int64) {
	if es.inactive() {
		return
	}
	if es.events.ReceiveRequest != nil {
		es.events.ReceiveRequest(n)
	}
	es.BaseSubscriber.Request(n)
}

func (es *eventsSubscriber[T]) Cancel() {
	if !es.markCancelled() || es.done {
		return
	}
	if es.events.ReceiveCancel != nil {
		es.events.ReceiveCancel()
	}
	es.BaseSubscriber.Cancel()
	es.BaseSubscriber.Release()
}

// ===== 上游方向：Subscriber =====

func (es *eventsSubscriber[T]) OnSubscribe(subscription Subscription) {
	if !es.BaseSubscriber.OnSubscribe(subscription) {
		return
	}
	if es.events.ReceiveSubscription != nil {
		es.events.ReceiveSubscription(subscription)
	}
	es.downstream.OnSubscribe(es)
}

func (es *eventsSubscriber[T]) OnNext(value T) {
	if es.inactive() {
		return
	}
	if es.events.ReceiveOutput != nil {
		es.events.ReceiveOutput(value)
	}
	es.downstream.OnNext(value)
}

func (es *eventsSubscriber[T]) OnError(err error) {
	es.terminate(Failed(err))
}

func (es *eventsSubscriber[T]) OnComplete() {
	es.terminate(Finished)
}

func (es *eventsSubscriber[T]) terminate(completion Completion) {
	if es.inactive() {
		return
	}
	es.done = true
	es.BaseSubscriber.Release()

	if es.events.ReceiveCompletion != nil {
		es.events.ReceiveCompletion(completion)
	}
	if completion.IsFinished() {
		es.downstream.OnComplete()
		return
	}
	es.downstream.OnError(completion.Err())
}

// ============================================================================
// Print
// ============================================================================

// Print 将每个协议事件打印为一行日志，prefix为空时不加前缀
//
//	publisher: receive subscription
//	publisher: request unlimited
//	publisher: receive value: (1)
//	publisher: receive finished
//
// 默认输出到标准输出，可通过WithWriter或WithLogger修改
func Print[T any](p Publisher[T], prefix string, options ...Option) Publisher[T] {
	config := newConfig(options...)

	return NewPublisher(func(subscriber Subscriber[T]) {
		log := printLogger(config)
		if config.SubscriptionIDs {
			log = log.With().Str(logger.FieldSubscription, uuid.NewString()).Logger()
		}

		line := func(format string, args ...interface{}) {
			msg := fmt.Sprintf(format, args...)
			if prefix != "" {
				msg = prefix + ": " + msg
			}
			log.Info().Msg(msg)
		}

		HandleEvents(p, Events[T]{
			ReceiveSubscription: func(Subscription) {
				line("receive subscription")
			},
			ReceiveRequest: func(n int64) {
				switch {
				case n == Unlimited:
					line("request unlimited")
				case n <= 0:
					line("request invalid: (%d)", n)
				default:
					line("request max: (%d)", n)
				}
			},
			ReceiveOutput: func(value T) {
				line("receive value: (%v)", value)
			},
			ReceiveCompletion: func(completion Completion) {
				if completion.IsFinished() {
					line("receive finished")
					return
				}
				line("receive error: (%v)", completion.Err())
			},
			ReceiveCancel: func() {
				line("receive cancel")
			},
		}).Subscribe(subscriber)
	})
}

func printLogger(config *Config) zerolog.Logger {
	if config.Logger != nil {
		return *config.Logger
	}
	out := config.Writer
	if out == nil {
		out = os.Stdout
	}
	return zerolog.New(logger.PlainWriter(out))
}
