package objcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/objcache"
)

var errBrokenStore = errors.New("broken store")

// countingFetch serves fixed content and counts calls.
type countingFetch struct {
	data  []byte
	calls atomic.Int64
}

func (f *countingFetch) fetch(_ context.Context, _ gitlib.Hash) ([]byte, error) {
	f.calls.Add(1)

	return f.data, nil
}

func TestMetric(t *testing.T) {
	t.Parallel()

	lines, ok := objcache.Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, lines)
	assert.Equal(t, "Some(3)", objcache.Some(3).String())

	lines, ok = objcache.None().Get()
	assert.False(t, ok)
	assert.Zero(t, lines)
	assert.Equal(t, "None", objcache.None().String())

	assert.True(t, objcache.Some(0).IsSome())
	assert.Zero(t, objcache.None().Lines())
}

func TestLookupOrCompute_TextBlob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := objcache.New()
	src := &countingFetch{data: []byte("a\nb\nc\n")}
	id := gitlib.NewHash("01")

	metric, err := cache.LookupOrCompute(ctx, id, gitlib.KindBlob, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, objcache.Some(3), metric)

	again, err := cache.LookupOrCompute(ctx, id, gitlib.KindBlob, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, metric, again)

	assert.Equal(t, int64(1), src.calls.Load(), "second lookup must not fetch")

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Fetches)
	assert.Equal(t, int64(6), stats.FetchedBytes)
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
}

func TestLookupOrCompute_EmptyBlob(t *testing.T) {
	t.Parallel()

	cache := objcache.New()
	src := &countingFetch{}

	metric, err := cache.LookupOrCompute(context.Background(), gitlib.NewHash("02"), gitlib.KindBlob, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, objcache.Some(0), metric)
}

func TestLookupOrCompute_BinaryIsNoneNotError(t *testing.T) {
	t.Parallel()

	cache := objcache.New()
	src := &countingFetch{data: []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}}

	metric, err := cache.LookupOrCompute(context.Background(), gitlib.NewHash("03"), gitlib.KindBlobExecutable, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, objcache.None(), metric)
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestLookupOrCompute_NonBlobSkipsFetch(t *testing.T) {
	t.Parallel()

	cache := objcache.New()
	src := &countingFetch{data: []byte("x\n")}

	nonBlobs := map[gitlib.Hash]gitlib.EntryKind{
		gitlib.NewHash("0401"): gitlib.KindTree,
		gitlib.NewHash("0402"): gitlib.KindSubmodule,
	}

	for id, kind := range nonBlobs {
		metric, err := cache.LookupOrCompute(context.Background(), id, kind, src.fetch)
		require.NoError(t, err)
		assert.Equal(t, objcache.None(), metric)
	}

	assert.Zero(t, src.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestLookupOrCompute_SymlinkIsMeasured(t *testing.T) {
	t.Parallel()

	cache := objcache.New()
	src := &countingFetch{data: []byte("../target")}

	metric, err := cache.LookupOrCompute(context.Background(), gitlib.NewHash("05"), gitlib.KindSymlink, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, objcache.Some(1), metric)
}

func TestLookupOrCompute_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	cache := objcache.New()
	id := gitlib.NewHash("06")
	failing := func(_ context.Context, hash gitlib.Hash) ([]byte, error) {
		return nil, gitlib.NewObjectAccessError(gitlib.ObjectBlob, hash, errBrokenStore)
	}

	_, err := cache.LookupOrCompute(context.Background(), id, gitlib.KindBlob, failing)
	require.ErrorIs(t, err, gitlib.ErrObjectAccess)
	require.ErrorIs(t, err, errBrokenStore)

	assert.Zero(t, cache.Len(), "failed fetch must not be cached")

	src := &countingFetch{data: []byte("ok\n")}

	metric, err := cache.LookupOrCompute(context.Background(), id, gitlib.KindBlob, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, objcache.Some(1), metric)
}

func TestLookupOrCompute_ConcurrentSingleFetch(t *testing.T) {
	t.Parallel()

	const callers = 32

	cache := objcache.New()
	release := make(chan struct{})

	var calls atomic.Int64

	slow := func(_ context.Context, _ gitlib.Hash) ([]byte, error) {
		calls.Add(1)
		<-release

		return []byte("1\n2\n"), nil
	}

	var wg sync.WaitGroup

	results := make([]objcache.Metric, callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			metric, err := cache.LookupOrCompute(context.Background(), gitlib.NewHash("07"), gitlib.KindBlob, slow)
			assert.NoError(t, err)

			results[i] = metric
		}()
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "identity must be fetched exactly once")

	for _, metric := range results {
		assert.Equal(t, objcache.Some(2), metric)
	}

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(callers-1), stats.Hits)
}
