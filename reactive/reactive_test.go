package reactive_test

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/delaneyj/hue/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	value, old any
}

func observe(t *testing.T, m map[string]any) *reactive.Object {
	t.Helper()
	obj, ok := reactive.Observe(m)
	require.True(t, ok)
	return obj
}

func watch(t *testing.T, ctx any, exp any) (*reactive.Watcher, *[]change) {
	t.Helper()
	var changes []change
	w, err := reactive.NewWatcher(ctx, exp, func(_ any, value, old any) {
		changes = append(changes, change{value, old})
	})
	require.NoError(t, err)
	return w, &changes
}

func TestHelloWorld(t *testing.T) {
	data := observe(t, map[string]any{"msg": "hello"})
	w, changes := watch(t, data, "msg")

	assert.Equal(t, "hello", w.Value())
	assert.Empty(t, *changes)

	data.Set("msg", "world")
	assert.Equal(t, []change{{"world", "hello"}}, *changes)

	data.Set("msg", "world")
	assert.Len(t, *changes, 1)
}

func TestNestedReplacement(t *testing.T) {
	data := observe(t, map[string]any{
		"user": map[string]any{"name": "a"},
	})
	_, changes := watch(t, data, "user.name")

	data.Set("user", map[string]any{"name": "b"})
	assert.Equal(t, []change{{"b", "a"}}, *changes)

	user, ok := data.Get("user").(*reactive.Object)
	require.True(t, ok)
	user.Set("name", "c")
	assert.Equal(t, []change{{"b", "a"}, {"c", "b"}}, *changes)
}

func TestChangeDetection(t *testing.T) {
	data := observe(t, map[string]any{"n": 0})
	_, changes := watch(t, data, "n")

	for _, v := range []int{0, 1, 1, 2, 2, 2, 1} {
		data.Set("n", v)
	}
	assert.Equal(t, []change{{1, 0}, {2, 1}, {1, 2}}, *changes)

	t.Run("NaN is never the same", func(t *testing.T) {
		data := observe(t, map[string]any{"f": math.NaN()})
		_, changes := watch(t, data, "f")
		data.Set("f", math.NaN())
		assert.Len(t, *changes, 1)
	})

	t.Run("computed result unchanged", func(t *testing.T) {
		data := observe(t, map[string]any{"n": 1})
		_, changes := watch(t, data, func(ctx any) any {
			return ctx.(*reactive.Object).Get("n").(int) > 0
		})
		data.Set("n", 2)
		data.Set("n", 3)
		assert.Empty(t, *changes)
		data.Set("n", -1)
		assert.Equal(t, []change{{false, true}}, *changes)
	})
}

func TestDependencyDedup(t *testing.T) {
	data := observe(t, map[string]any{"n": 1})
	runs := 0
	w, changes := watch(t, data, func(ctx any) any {
		runs++
		obj := ctx.(*reactive.Object)
		sum := 0
		for i := 0; i < 5; i++ {
			sum += obj.Get("n").(int)
		}
		return sum
	})

	p, ok := data.Property("n")
	require.True(t, ok)
	assert.Equal(t, 1, p.Dep().Subscribers())
	assert.Equal(t, []uint64{p.Dep().ID()}, w.DepIDs())

	data.Set("n", 2)
	assert.Equal(t, 2, runs)
	assert.Equal(t, []change{{10, 5}}, *changes)
}

func TestTransitiveObservation(t *testing.T) {
	data := observe(t, map[string]any{
		"a": map[string]any{"b": 1},
	})
	_, changes := watch(t, data, "a.b")

	a := data.Get("a").(*reactive.Object)
	a.Set("b", 2)
	assert.Equal(t, []change{{2, 1}}, *changes)

	data.Set("a", map[string]any{"b": 3})
	assert.Equal(t, []change{{2, 1}, {3, 2}}, *changes)

	data.Get("a").(*reactive.Object).Set("b", 4)
	assert.Equal(t, []change{{2, 1}, {3, 2}, {4, 3}}, *changes)
}

func TestArrayExclusion(t *testing.T) {
	items := []any{1, 2, 3}
	data := observe(t, map[string]any{"items": items})

	fired := 0
	_, err := reactive.NewWatcher(data, func(ctx any) any {
		list := ctx.(*reactive.Object).Get("items").([]any)
		return fmt.Sprint(list...)
	}, func(any, any, any) { fired++ })
	require.NoError(t, err)

	items[0] = 9
	assert.Equal(t, 0, fired)

	data.Set("items", items)
	assert.Equal(t, 0, fired, "same slice is the same value")

	data.Set("items", []any{4, 5})
	assert.Equal(t, 1, fired)

	_, ok := reactive.Observe(items)
	assert.False(t, ok)
}

func TestObserve(t *testing.T) {
	t.Run("non objects", func(t *testing.T) {
		for _, v := range []any{nil, 1, "s", []int{1}, map[string]any(nil), (*reactive.Object)(nil)} {
			obj, ok := reactive.Observe(v)
			assert.False(t, ok)
			assert.Nil(t, obj)
		}
	})

	t.Run("observed object is returned as is", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		again, ok := reactive.Observe(data)
		assert.True(t, ok)
		assert.Same(t, data, again)
	})

	t.Run("keys sorted", func(t *testing.T) {
		data := observe(t, map[string]any{"c": 1, "a": 2, "b": 3})
		assert.Equal(t, []string{"a", "b", "c"}, data.Keys())
	})

	t.Run("late keys are plain", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		data.Set("late", 1)
		assert.True(t, data.Has("late"))
		assert.False(t, data.Reactive("late"))

		_, changes := watch(t, data, "late")
		data.Set("late", 2)
		assert.Empty(t, *changes)
		assert.Equal(t, 2, data.Peek("late"))
	})

	t.Run("to map", func(t *testing.T) {
		src := map[string]any{"a": 1, "b": map[string]any{"c": "x"}}
		data := observe(t, src)
		data.Set("d", true)
		assert.Equal(t, map[string]any{
			"a": 1,
			"b": map[string]any{"c": "x"},
			"d": true,
		}, data.ToMap())
	})
}

func TestDefineReactive(t *testing.T) {
	data := observe(t, map[string]any{"a": 1})
	data.Set("late", 1)

	p, err := reactive.DefineReactive(data, "late", 5)
	require.NoError(t, err)
	assert.Equal(t, "late", p.Key())
	assert.True(t, data.Reactive("late"))
	assert.Equal(t, []string{"a", "late"}, data.Keys())

	_, changes := watch(t, data, "late")
	data.Set("late", 6)
	assert.Equal(t, []change{{6, 5}}, *changes)

	_, err = reactive.DefineReactive(data, "a", 2)
	assert.ErrorIs(t, err, reactive.ErrPropertyNotConfigurable)

	data.Freeze()
	assert.True(t, data.Frozen())
	_, err = reactive.DefineReactive(data, "other", 1)
	assert.ErrorIs(t, err, reactive.ErrPropertyNotConfigurable)

	data.Set("plain", 1)
	assert.False(t, data.Has("plain"))
	data.Set("a", 3)
	assert.Equal(t, 3, data.Peek("a"))
}

func TestWatcher(t *testing.T) {
	t.Run("invalid path fails fast", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		_, err := reactive.NewWatcher(data, "a.b!", nil)
		assert.ErrorIs(t, err, reactive.ErrInvalidExpressionPath)
	})

	t.Run("unsupported expression", func(t *testing.T) {
		_, err := reactive.NewWatcher(nil, 42, nil)
		assert.ErrorIs(t, err, reactive.ErrUnsupportedExpression)

		var g reactive.Getter
		_, err = reactive.NewWatcher(nil, g, nil)
		assert.ErrorIs(t, err, reactive.ErrUnsupportedExpression)
	})

	t.Run("callback receives context", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		var got any
		_, err := reactive.NewWatcher(data, " a ", func(ctx any, _, _ any) {
			got = ctx
		})
		require.NoError(t, err)
		data.Set("a", 2)
		assert.Same(t, data, got)
	})

	t.Run("expression is trimmed", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		w, _ := watch(t, data, "  a ")
		assert.Equal(t, "a", w.Expression())
		assert.Equal(t, data, w.Context())
	})

	t.Run("subscriptions accumulate", func(t *testing.T) {
		//   flag
		//   /  \
		//  a    b  <- b stops being read once flag is false
		data := observe(t, map[string]any{"flag": true, "a": 1, "b": 2})
		runs := 0
		w, _ := watch(t, data, func(ctx any) any {
			runs++
			obj := ctx.(*reactive.Object)
			if obj.Get("flag").(bool) {
				return obj.Get("b")
			}
			return obj.Get("a")
		})
		assert.Len(t, w.DepIDs(), 2)

		data.Set("flag", false)
		assert.Len(t, w.DepIDs(), 3)

		runs = 0
		data.Set("b", 3)
		assert.Equal(t, 1, runs, "still subscribed to b")
	})

	t.Run("dispose", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1, "b": 2})
		w, changes := watch(t, data, func(ctx any) any {
			obj := ctx.(*reactive.Object)
			return obj.Get("a").(int) + obj.Get("b").(int)
		})
		pa, _ := data.Property("a")
		assert.Equal(t, 1, pa.Dep().Subscribers())

		w.Dispose()
		assert.True(t, w.Disposed())
		assert.Equal(t, 0, pa.Dep().Subscribers())
		assert.Empty(t, w.DepIDs())

		data.Set("a", 5)
		assert.Empty(t, *changes)
		w.Run()
		assert.Empty(t, *changes)
		w.Dispose()
	})

	t.Run("tracking restored after panic", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		_, err := reactive.NewWatcher(data, func(ctx any) any {
			if ctx.(*reactive.Object).Get("a").(int) > 1 {
				panic("boom")
			}
			return nil
		}, nil)
		require.NoError(t, err)

		assert.Panics(t, func() { data.Set("a", 2) })
		assert.False(t, reactive.Tracking())
	})

	t.Run("subscribers run in order", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1})
		var order []string
		for _, name := range []string{"first", "second", "third"} {
			name := name
			_, err := reactive.NewWatcher(data, "a", func(any, any, any) {
				order = append(order, name)
			})
			require.NoError(t, err)
		}
		data.Set("a", 2)
		assert.Equal(t, []string{"first", "second", "third"}, order)
	})

	t.Run("callback writes cascade depth first", func(t *testing.T) {
		//  a -> b -> c
		data := observe(t, map[string]any{"a": 1, "b": 0, "c": 0})
		var order []string
		_, err := reactive.NewWatcher(data, "a", func(ctx any, v, _ any) {
			order = append(order, "a")
			ctx.(*reactive.Object).Set("b", v.(int)*10)
			order = append(order, "a done")
		})
		require.NoError(t, err)
		_, err = reactive.NewWatcher(data, "b", func(ctx any, v, _ any) {
			order = append(order, "b")
			ctx.(*reactive.Object).Set("c", v.(int)+1)
		})
		require.NoError(t, err)
		_, changes := watch(t, data, "c")

		data.Set("a", 2)
		assert.Equal(t, []string{"a", "b", "a done"}, order)
		assert.Equal(t, []change{{21, 0}}, *changes)
	})

	t.Run("nested evaluation restores outer watcher", func(t *testing.T) {
		data := observe(t, map[string]any{"a": 1, "b": 1})
		inner, _ := watch(t, data, "b")
		outer, _ := watch(t, data, func(ctx any) any {
			obj := ctx.(*reactive.Object)
			inner.Get()
			return obj.Get("a")
		})
		pa, _ := data.Property("a")
		pb, _ := data.Property("b")
		assert.Equal(t, []uint64{pa.Dep().ID()}, outer.DepIDs())
		assert.Equal(t, []uint64{pb.Dep().ID()}, inner.DepIDs())
	})
}

func TestUntracked(t *testing.T) {
	data := observe(t, map[string]any{"a": 1, "b": 1})
	w, _ := watch(t, data, func(ctx any) any {
		obj := ctx.(*reactive.Object)
		var b any
		reactive.Untracked(func() {
			assert.False(t, reactive.Tracking())
			b = obj.Get("b")
		})
		assert.True(t, reactive.Tracking())
		return fmt.Sprint(obj.Get("a"), b)
	})
	assert.Len(t, w.DepIDs(), 1)
}

func TestTrackingIsGoroutineLocal(t *testing.T) {
	data := observe(t, map[string]any{"a": 1})
	other := observe(t, map[string]any{"x": 1})

	var wg sync.WaitGroup
	w, _ := watch(t, data, func(ctx any) any {
		wg.Add(1)
		go func() {
			defer wg.Done()
			other.Get("x")
		}()
		wg.Wait()
		return ctx.(*reactive.Object).Get("a")
	})

	px, _ := other.Property("x")
	assert.Equal(t, 0, px.Dep().Subscribers())
	assert.Len(t, w.DepIDs(), 1)
}

func TestSame(t *testing.T) {
	m := map[string]any{}
	s := []int{1, 2}
	p := &struct{ n int }{}

	assert.True(t, reactive.Same(nil, nil))
	assert.True(t, reactive.Same(1, 1))
	assert.True(t, reactive.Same("a", "a"))
	assert.True(t, reactive.Same(m, m))
	assert.True(t, reactive.Same(s, s))
	assert.True(t, reactive.Same(p, p))

	assert.False(t, reactive.Same(nil, 0))
	assert.False(t, reactive.Same(1, 1.0))
	assert.False(t, reactive.Same(math.NaN(), math.NaN()))
	assert.False(t, reactive.Same(m, map[string]any{}))
	assert.False(t, reactive.Same(s, []int{1, 2}))
	assert.False(t, reactive.Same(s, s[:1]))
	assert.False(t, reactive.Same(p, &struct{ n int }{}))

	t.Run("boxed uncomparable values", func(t *testing.T) {
		inner := []int{1}
		assert.NotPanics(t, func() {
			assert.False(t, reactive.Same(boxed{inner}, boxed{inner}))
			assert.False(t, reactive.Same(boxed{[]int{1}}, boxed{1}))
		})
		assert.True(t, reactive.Same(boxed{1}, boxed{1}))
		assert.False(t, reactive.Same(boxed{1}, boxed{2}))
	})
}

type boxed struct {
	X any
}

func TestSetBoxedValue(t *testing.T) {
	data := observe(t, map[string]any{"k": boxed{[]int{1}}})
	_, changes := watch(t, data, "k")

	assert.NotPanics(t, func() {
		data.Set("k", boxed{[]int{2}})
	})
	require.Len(t, *changes, 1)
	assert.Equal(t, boxed{[]int{2}}, (*changes)[0].value)

	data.Set("k", boxed{"x"})
	data.Set("k", boxed{"x"})
	assert.Len(t, *changes, 2)
}
