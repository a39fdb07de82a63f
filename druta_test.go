package druta

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/cache"
	"github.com/wippyai/druta/config"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/exec"
	"github.com/wippyai/druta/transform"
)

const arithDoc = `["toplevel", [
  ["stat", ["assign", true, ["name", "r"],
    ["call", ["name", "asyncArith"], [["name", "$$callBack"], ["num", 10], ["string", "+"], ["num", 1], ["num", 2]]]]],
  ["stat", ["call", ["name", "alert"], [["name", "r"]]]]
]]`

type recordingRuntime struct {
	err  error
	runs []exec.Code
	mu   sync.Mutex
}

func (r *recordingRuntime) Execute(_ context.Context, code exec.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, code)
	return r.err
}

type memCache struct {
	entries map[string]*cache.Entry
	gets    int
	hits    int
	mu      sync.Mutex
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*cache.Entry)}
}

func (m *memCache) Get(_ context.Context, key string) (*cache.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	e, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return e, ok, nil
}

func (m *memCache) Put(_ context.Context, key string, e *cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

func TestCompile(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	out, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)
	require.Len(t, out.Code, 5)
	require.True(t, out.Code[0].Suspends())
	require.Equal(t, `asyncArith($$callBack, 10, "+", 1, 2);`, out.Code[0].(*exec.Leaf).Code)
	require.False(t, out.Code[3].Suspends())
	require.Equal(t, 2, out.Stats.Calls)
	require.Equal(t, 1, out.Stats.AsyncCalls)
}

func TestCompileDecodeError(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	_, err = c.Compile([]byte(`["toplevel", [["bogus"]]]`))
	require.Error(t, err)
	require.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindUnknownNode}), "got %v", err)
}

func TestWithConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[convention]
prefixes = ["host_"]

[output]
temp_prefix = "__t"
`))
	require.NoError(t, err)

	c, err := New(WithConfig(cfg))
	require.NoError(t, err)

	out, err := c.Compile([]byte(`["toplevel", [["stat", ["call", ["name", "host_read"], []]]]]`))
	require.NoError(t, err)
	require.True(t, out.Code[0].Suspends())
	require.Equal(t, "__t0 = self.returnValue;", out.Code[1].(*exec.Leaf).Code)
}

func TestCompileCache(t *testing.T) {
	mc := newMemCache()
	c, err := New(WithCache(mc))
	require.NoError(t, err)

	first, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)
	second, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)

	require.Equal(t, 2, mc.gets)
	require.Equal(t, 1, mc.hits)
	require.Equal(t, first.Source, second.Source)
	require.Equal(t, first.Code, second.Code)
	require.Equal(t, first.Stats.Calls, second.Stats.Calls)
	require.Equal(t, first.Stats.Instructions, second.Stats.Instructions)
}

func TestCompileCacheKeyIncludesConfig(t *testing.T) {
	mc := newMemCache()
	a, err := New(WithCache(mc))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Output.TempPrefix = "__t"
	b, err := New(WithConfig(cfg), WithCache(mc))
	require.NoError(t, err)

	_, err = a.Compile([]byte(arithDoc))
	require.NoError(t, err)
	out, err := b.Compile([]byte(arithDoc))
	require.NoError(t, err)
	require.Equal(t, 0, mc.hits)
	require.Contains(t, out.Source, "__t0")
}

func TestCompileSQLiteCache(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "druta.db"))
	require.NoError(t, err)
	defer store.Close()

	c, err := New(WithCache(store))
	require.NoError(t, err)

	first, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)
	second, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)
	require.Equal(t, first.Code, second.Code)
	require.Equal(t, first.Locals, second.Locals)

	n, err := store.Len(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRunInputs(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	tree, err := ast.Decode([]byte(arithDoc))
	require.NoError(t, err)
	out, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input any
	}{
		{"document bytes", []byte(arithDoc)},
		{"document string", arithDoc},
		{"tree", tree},
		{"output", out},
		{"code", out.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &recordingRuntime{}
			require.NoError(t, c.Run(context.Background(), tt.input, rt))
			require.Len(t, rt.runs, 1)
			require.Equal(t, out.Code, rt.runs[0])
		})
	}
}

func TestRunErrors(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	err = c.Run(ctx, arithDoc, nil)
	require.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotInitialized}))

	err = c.Run(ctx, 42, &recordingRuntime{})
	require.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindInvalidInput}))

	var nilOut *transform.Output
	err = c.Run(ctx, nilOut, &recordingRuntime{})
	require.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindInvalidInput}))

	boom := stderrors.New("runtime crashed")
	err = c.Run(ctx, arithDoc, &recordingRuntime{err: boom})
	require.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	rt := &recordingRuntime{}
	require.ErrorIs(t, c.Run(cancelled, arithDoc, rt), context.Canceled)
	require.Empty(t, rt.runs)
}

func TestCompileLogsUnanalyzedAsyncCall(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c, err := New(WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = c.Compile([]byte(`["toplevel", [["while", ["call", ["name", "asyncMore"], []], ["block", []]]]]`))
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("async call inside unanalyzed construct").Len())
}

func TestConcurrentCompile(t *testing.T) {
	c, err := New(WithCache(newMemCache()))
	require.NoError(t, err)
	want, err := c.Compile([]byte(arithDoc))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Compile([]byte(arithDoc))
			if err != nil {
				t.Error(err)
				return
			}
			if got.Source != want.Source {
				t.Errorf("source differs:\n%s", got.Source)
			}
		}()
	}
	wg.Wait()
}
