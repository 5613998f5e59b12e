// Metric instrumentation for rxreduce
// 指标埋点：把经过某个阶段的协议事件记录为OpenTelemetry计数器
package rxreduce

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 计数器名称
const (
	MetricValues      = "rxreduce.values"
	MetricRequests    = "rxreduce.requests"
	MetricCompletions = "rxreduce.completions"
)

// outcome属性的取值
const (
	OutcomeFinished  = "finished"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// stageMetrics 一个阶段的计数器
type stageMetrics struct {
	values      metric.Int64Counter
	requests    metric.Int64Counter
	completions metric.Int64Counter
}

func newStageMetrics(meter metric.Meter) (*stageMetrics, error) {
	values, err := meter.Int64Counter(MetricValues,
		metric.WithDescription("Values delivered downstream"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricValues, err)
	}

	requests, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Demand requests sent upstream"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRequests, err)
	}

	completions, err := meter.Int64Counter(MetricCompletions,
		metric.WithDescription("Terminal signals by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCompletions, err)
	}

	return &stageMetrics{
		values:      values,
		requests:    requests,
		completions: completions,
	}, nil
}

// Instrument 记录经过该阶段的值、请求与终止信号，不改变数据流
// 每个计数器都带有 stage=name 属性以及WithAttributes追加的属性
// 协议回调不携带上下文，所有记录都使用ctx
func Instrument[T any](ctx context.Context, p Publisher[T], meter metric.Meter, name string, options ...Option) Publisher[T] {
	config := newConfig(options...)

	m, err := newStageMetrics(meter)
	if err != nil {
		return Fail[T](err)
	}

	attrs := append([]attribute.KeyValue{attribute.String("stage", name)}, config.Attributes...)
	stage := metric.WithAttributes(attrs...)
	outcome := func(o string) metric.AddOption {
		return metric.WithAttributes(append(attrs[:len(attrs):len(attrs)], attribute.String("outcome", o))...)
	}

	return HandleEvents(p, Events[T]{
		ReceiveOutput: func(T) {
			m.values.Add(ctx, 1, stage)
		},
		ReceiveRequest: func(int64) {
			m.requests.Add(ctx, 1, stage)
		},
		ReceiveCompletion: func(completion Completion) {
			if completion.IsFinished() {
				m.completions.Add(ctx, 1, outcome(OutcomeFinished))
				return
			}
			m.completions.Add(ctx, 1, outcome(OutcomeFailed))
		},
		ReceiveCancel: func() {
			m.completions.Add(ctx, 1, outcome(OutcomeCancelled))
		},
	})
}
