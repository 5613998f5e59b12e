// Reducing operator tests for rxreduce
// 归约操作符测试
package rxreduce

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 测试辅助
// ============================================================================

// upstreamProbe 记录上游观察到的请求与取消
type upstreamProbe struct {
	subscriptions int
	requests      []int64
	cancels       int
	completions   []Completion
}

func probe[T any](p Publisher[T], pr *upstreamProbe) Publisher[T] {
	return HandleEvents(p, Events[T]{
		ReceiveSubscription: func(Subscription) { pr.subscriptions++ },
		ReceiveRequest:      func(n int64) { pr.requests = append(pr.requests, n) },
		ReceiveCancel:       func() { pr.cancels++ },
		ReceiveCompletion:   func(c Completion) { pr.completions = append(pr.completions, c) },
	})
}

// emitThenFail 收到第一次请求时发射全部值然后失败
func emitThenFail[T any](err error, values ...T) Publisher[T] {
	return NewPublisher(func(subscriber Subscriber[T]) {
		started := false
		var subscription Subscription
		subscription = NewSubscription(func(int64) {
			if started {
				return
			}
			started = true
			for _, v := range values {
				if subscription.IsCancelled() {
					return
				}
				subscriber.OnNext(v)
			}
			if !subscription.IsCancelled() {
				subscriber.OnError(err)
			}
		}, nil)
		subscriber.OnSubscribe(subscription)
	})
}

func collectAll[T any](p Publisher[T]) *testSubscriber[T] {
	ts := newTestSubscriber[T](Unlimited)
	p.Subscribe(ts)
	return ts
}

func byteLen(a, b string) bool {
	return len(a) < len(b)
}

// ============================================================================
// Min / Max
// ============================================================================

func TestMin(t *testing.T) {
	v, err := AwaitValue(Min(Just(1, -50, 246, 0)))
	require.NoError(t, err)
	assert.Equal(t, -50, v)
}

func TestMinByByteLength(t *testing.T) {
	v, err := AwaitValue(MinBy(Just("12345", "ab", "hello world"), byteLen))
	require.NoError(t, err)
	assert.Equal(t, "ab", v)
}

func TestMax(t *testing.T) {
	v, err := AwaitValue(Max(Just("A", "F", "Z", "E")))
	require.NoError(t, err)
	assert.Equal(t, "Z", v)
}

func TestMinMaxTieKeepsFirst(t *testing.T) {
	type item struct {
		key  int
		name string
	}
	less := func(a, b item) bool { return a.key < b.key }
	items := Just(item{1, "a"}, item{3, "b"}, item{3, "c"}, item{1, "d"})

	minimum, err := AwaitValue(MinBy(items, less))
	require.NoError(t, err)
	assert.Equal(t, "a", minimum.name)

	maximum, err := AwaitValue(MaxBy(items, less))
	require.NoError(t, err)
	assert.Equal(t, "b", maximum.name)
}

func TestMinMaxEmpty(t *testing.T) {
	for name, p := range map[string]Publisher[int]{
		"min": Min(Empty[int]()),
		"max": Max(Empty[int]()),
	} {
		t.Run(name, func(t *testing.T) {
			ts := collectAll(p)
			assert.Empty(t, ts.values, "空流不应发射值")
			assert.True(t, ts.finished())
		})
	}
}

func TestMinSingleElement(t *testing.T) {
	v, err := AwaitValue(Min(Just(7)))
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

// ============================================================================
// First / Last
// ============================================================================

func TestFirst(t *testing.T) {
	var pr upstreamProbe
	ts := collectAll(First(probe(Just("A", "B", "C"), &pr)))

	assert.Equal(t, []string{"A"}, ts.values)
	assert.True(t, ts.finished())
	assert.Equal(t, []int64{1}, pr.requests, "上游只应看到一次Request(1)")
	assert.Equal(t, 1, pr.cancels)
	assert.Empty(t, pr.completions)
}

func TestFirstEmpty(t *testing.T) {
	var pr upstreamProbe
	ts := collectAll(First(probe(Empty[string](), &pr)))

	assert.Empty(t, ts.values)
	assert.True(t, ts.finished())
	assert.Equal(t, 0, pr.cancels)
}

func TestFirstWhere(t *testing.T) {
	var pr upstreamProbe
	p := FirstWhere(probe(Just("J", "O", "H", "N"), &pr), func(s string) bool {
		return strings.Contains("Hello World", s)
	})

	ts := collectAll(p)
	assert.Equal(t, []string{"H"}, ts.values)
	assert.True(t, ts.finished())
	assert.Equal(t, 1, pr.cancels, "命中后应取消上游")
}

func TestFirstWhereNoMatch(t *testing.T) {
	ts := collectAll(FirstWhere(Just(1, 3, 5), func(v int) bool { return v%2 == 0 }))
	assert.Empty(t, ts.values)
	assert.True(t, ts.finished())
}

func TestLast(t *testing.T) {
	v, err := AwaitValue(Last(Just("A", "B", "C")))
	require.NoError(t, err)
	assert.Equal(t, "C", v)
}

func TestLastWhere(t *testing.T) {
	v, err := AwaitValue(LastWhere(Range(0, 10), func(v int) bool { return v%3 == 0 }))
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestLastEmpty(t *testing.T) {
	_, err := AwaitValue(Last(Empty[int]()))
	assert.ErrorIs(t, err, ErrEmpty)
}

// ============================================================================
// OutputAt / Count
// ============================================================================

func TestOutputAt(t *testing.T) {
	var pr upstreamProbe
	ts := collectAll(OutputAt(probe(Just("A", "B", "C"), &pr), 1))

	assert.Equal(t, []string{"B"}, ts.values)
	assert.True(t, ts.finished())
	assert.Equal(t, 1, pr.cancels)
}

func TestOutputAtOutOfRange(t *testing.T) {
	for _, index := range []int{3, 100, -1} {
		ts := collectAll(OutputAt(Just("A", "B", "C"), index))
		assert.Empty(t, ts.values, "index %d", index)
		assert.True(t, ts.finished())
	}
}

func TestCount(t *testing.T) {
	n, err := AwaitValue(Count(Just("A", "B", "C")))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = AwaitValue(Count(Empty[string]()))
	require.NoError(t, err)
	assert.Equal(t, 0, n, "空流计数为0")
}

// ============================================================================
// Contains / AllSatisfy
// ============================================================================

func TestContains(t *testing.T) {
	var pr upstreamProbe
	found, err := AwaitValue(Contains(probe(Just("A", "B", "C", "D", "E"), &pr), "C"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, pr.cancels)

	found, err = AwaitValue(Contains(Just("A", "B"), "Z"))
	require.NoError(t, err)
	assert.False(t, found)

	found, err = AwaitValue(Contains(Empty[string](), "A"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestContainsWhere(t *testing.T) {
	type person struct {
		id   int
		name string
	}
	people := Just(person{123, "Shai Mishali"}, person{777, "Marin Todorov"}, person{214, "Florent Pillet"})

	found, err := AwaitValue(ContainsWhere(people, func(p person) bool { return p.id == 800 }))
	require.NoError(t, err)
	assert.False(t, found)

	found, err = AwaitValue(ContainsWhere(people, func(p person) bool { return p.id == 777 }))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestAllSatisfy(t *testing.T) {
	even := func(v int) bool { return v%2 == 0 }

	ok, err := AwaitValue(AllSatisfy(Stride(0, 5, 2), even))
	require.NoError(t, err)
	assert.True(t, ok)

	var pr upstreamProbe
	ok, err = AwaitValue(AllSatisfy(probe(Just(0, 2, 3, 4), &pr), even))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, pr.cancels, "第一个不满足的值出现后应取消上游")

	ok, err = AwaitValue(AllSatisfy(Empty[int](), even))
	require.NoError(t, err)
	assert.True(t, ok, "空流恒为true")
}

// ============================================================================
// Reduce
// ============================================================================

func TestReduce(t *testing.T) {
	v, err := AwaitValue(Reduce(Just("Hel", "lo", " ", "Wor", "ld", "!"), "", func(acc, s string) string {
		return acc + s
	}))
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", v)
}

func TestReduceEmptyReturnsSeed(t *testing.T) {
	v, err := AwaitValue(Reduce(Empty[int](), 42, func(acc, v int) int { return acc + v }))
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestReduceIsLeftFold(t *testing.T) {
	v, err := AwaitValue(Reduce(Just(1, 2, 3), "", func(acc string, v int) string {
		return "(" + acc + "," + string(rune('0'+v)) + ")"
	}))
	require.NoError(t, err)
	assert.Equal(t, "(((,1),2),3)", v)
}

// ============================================================================
// 错误处理
// ============================================================================

func TestUpstreamFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	src := func() Publisher[int] { return emitThenFail(boom, 1, 2) }
	alwaysFalse := func(int) bool { return false }

	checks := map[string]func() error{
		"min":        func() error { _, err := Collect(Min(src())); return err },
		"max":        func() error { _, err := Collect(Max(src())); return err },
		"first":      func() error { _, err := Collect(FirstWhere(src(), alwaysFalse)); return err },
		"last":       func() error { _, err := Collect(Last(src())); return err },
		"output_at":  func() error { _, err := Collect(OutputAt(src(), 5)); return err },
		"count":      func() error { _, err := Collect(Count(src())); return err },
		"contains":   func() error { _, err := Collect(Contains(src(), 9)); return err },
		"allSatisfy": func() error { _, err := Collect(AllSatisfy(src(), func(int) bool { return true })); return err },
		"reduce":     func() error { _, err := Collect(Reduce(src(), 0, func(a, v int) int { return a + v })); return err },
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			assert.Same(t, boom, check(), "上游错误应原样传递")
		})
	}
}

func TestFailureEmitsNoResult(t *testing.T) {
	ts := collectAll(Count(emitThenFail(errors.New("boom"), "a", "b")))
	assert.Empty(t, ts.values)
	require.NotNil(t, ts.completion)
	assert.False(t, ts.completion.IsFinished())
}

func TestTryVariantsSurfaceErrors(t *testing.T) {
	bad := errors.New("bad input")

	checks := map[string]Publisher[int]{
		"min": TryMinBy(Just(1, 2, 3), func(a, b int) (bool, error) { return false, bad }),
		"max": TryMaxBy(Just(1, 2, 3), func(a, b int) (bool, error) { return false, bad }),
		"first": TryFirstWhere(Just(1, 2, 3), func(v int) (bool, error) {
			if v == 2 {
				return false, bad
			}
			return false, nil
		}),
		"last": TryLastWhere(Just(1, 2, 3), func(int) (bool, error) { return true, bad }),
		"reduce": TryReduce(Just(1, 2, 3), 0, func(acc, v int) (int, error) {
			return 0, bad
		}),
	}

	for name, p := range checks {
		t.Run(name, func(t *testing.T) {
			_, err := Collect(p)
			assert.ErrorIs(t, err, bad)
		})
	}
}

func TestTryPredicateErrorCancelsUpstream(t *testing.T) {
	bad := errors.New("bad input")
	var pr upstreamProbe

	_, err := Collect(TryAllSatisfy(probe(Just(1, 2, 3), &pr), func(v int) (bool, error) {
		return true, bad
	}))
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, pr.cancels)
	assert.Empty(t, pr.completions)

	pr = upstreamProbe{}
	_, err = Collect(TryContainsWhere(probe(Just(1, 2, 3), &pr), func(v int) (bool, error) {
		return false, bad
	}))
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, pr.cancels)
}

func TestPanicInComparatorIsRecovered(t *testing.T) {
	_, err := Collect(MinBy(Just(1, 2), func(a, b int) bool { panic("comparator broke") }))

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "comparator broke", pe.Value)
}

func TestPanicInReducerIsRecovered(t *testing.T) {
	cause := errors.New("cause")
	_, err := Collect(Reduce(Just(1), 0, func(int, int) int { panic(cause) }))
	assert.ErrorIs(t, err, cause)
}

func TestValueBeforeSubscriptionExceedsDemand(t *testing.T) {
	rogue := NewPublisher(func(subscriber Subscriber[int]) {
		subscriber.OnNext(1)
		subscriber.OnSubscribe(NewSubscription(nil, nil))
		subscriber.OnComplete()
	})

	ts := collectAll(Count(rogue))
	require.NotNil(t, ts.completion)
	assert.ErrorIs(t, ts.completion.Err(), ErrDemandExceeded)
	assert.Equal(t, 1, ts.terminations)
	assert.Empty(t, ts.values)
}

// ============================================================================
// 订阅生命周期
// ============================================================================

func TestReduceSubscribesUpstreamLazily(t *testing.T) {
	var pr upstreamProbe
	ts := newTestSubscriber[int](0)
	Count(probe(Just(1, 2), &pr)).Subscribe(ts)

	assert.Equal(t, 0, pr.subscriptions, "没有需求时不应订阅上游")

	ts.subscription.Request(1)
	assert.Equal(t, 1, pr.subscriptions)
	assert.Equal(t, []int{2}, ts.values)
	assert.True(t, ts.finished())

	ts.subscription.Request(1)
	assert.Equal(t, 1, pr.subscriptions, "重复请求不应再次订阅")
}

func TestReduceCancelBeforeRequest(t *testing.T) {
	var pr upstreamProbe
	ts := newTestSubscriber[int](0)
	Count(probe(Just(1, 2), &pr)).Subscribe(ts)

	ts.subscription.Cancel()
	ts.subscription.Request(1)

	assert.Equal(t, 0, pr.subscriptions)
	assert.Nil(t, ts.completion)
}

func TestDownstreamCancelInsideResult(t *testing.T) {
	ts := newTestSubscriber[int](Unlimited)
	ts.onNext = func(ts *testSubscriber[int], _ int) {
		ts.subscription.Cancel()
	}
	Count(Just(1, 2, 3)).Subscribe(ts)

	assert.Equal(t, []int{3}, ts.values)
	assert.Nil(t, ts.completion, "取消后不应再收到完成信号")
}
