package vies_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vatkit/pkg/vies"
)

func TestCachedRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("caches valid answers", func(t *testing.T) {
		t.Parallel()

		upstream := new(mockRegistry)
		upstream.On("CheckVAT", mock.Anything, "NL", "123456789B01").Return(true, nil).Once()

		m := vies.NewMetrics(prometheus.NewRegistry())
		r := vies.NewCachedRegistry(upstream, vies.NewMemoryStore(10), vies.WithCacheMetrics(m))

		for range 3 {
			valid, err := r.CheckVAT(ctx, "NL", "123456789B01")
			require.NoError(t, err)
			assert.True(t, valid)
		}

		upstream.AssertExpectations(t)
		assert.InDelta(t, 2, testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")), 0)
	})

	t.Run("caches invalid answers", func(t *testing.T) {
		t.Parallel()

		upstream := new(mockRegistry)
		upstream.On("CheckVAT", mock.Anything, "DE", "123456789").Return(false, nil).Once()

		r := vies.NewCachedRegistry(upstream, vies.NewMemoryStore(10))

		for range 2 {
			valid, err := r.CheckVAT(ctx, "DE", "123456789")
			require.NoError(t, err)
			assert.False(t, valid)
		}
		upstream.AssertExpectations(t)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		failure := errors.New("member state down")
		upstream := new(mockRegistry)
		upstream.On("CheckVAT", mock.Anything, "DE", "123456789").Return(false, failure).Twice()

		r := vies.NewCachedRegistry(upstream, vies.NewMemoryStore(10))

		for range 2 {
			_, err := r.CheckVAT(ctx, "DE", "123456789")
			assert.ErrorIs(t, err, failure)
		}
		upstream.AssertExpectations(t)
	})

	t.Run("uses separate ttls", func(t *testing.T) {
		t.Parallel()

		upstream := new(mockRegistry)
		upstream.On("CheckVAT", mock.Anything, "NL", "123456789B01").Return(true, nil).Once()
		upstream.On("CheckVAT", mock.Anything, "NL", "999999999B99").Return(false, nil).Once()

		store := new(mockStore)
		store.On("Get", mock.Anything, mock.Anything).Return(false, false, nil)
		store.On("Set", mock.Anything, "vat:NL:123456789B01", true, 2*time.Hour).Return(nil).Once()
		store.On("Set", mock.Anything, "vat:NL:999999999B99", false, 5*time.Minute).Return(nil).Once()

		r := vies.NewCachedRegistry(upstream, store, vies.WithTTL(2*time.Hour), vies.WithNegativeTTL(5*time.Minute))

		_, err := r.CheckVAT(ctx, "NL", "123456789B01")
		require.NoError(t, err)
		_, err = r.CheckVAT(ctx, "NL", "999999999B99")
		require.NoError(t, err)

		store.AssertExpectations(t)
		upstream.AssertExpectations(t)
	})

	t.Run("store failures fall through to upstream", func(t *testing.T) {
		t.Parallel()

		upstream := new(mockRegistry)
		upstream.On("CheckVAT", mock.Anything, "AT", "U12345678").Return(true, nil).Once()

		store := new(mockStore)
		store.On("Get", mock.Anything, "vat:AT:U12345678").Return(false, false, errors.New("connection refused"))
		store.On("Set", mock.Anything, "vat:AT:U12345678", true, mock.Anything).Return(errors.New("connection refused"))

		valid, err := vies.NewCachedRegistry(upstream, store).CheckVAT(ctx, "AT", "U12345678")
		require.NoError(t, err)
		assert.True(t, valid)
		upstream.AssertExpectations(t)
	})

	t.Run("expired answers are fetched again", func(t *testing.T) {
		t.Parallel()

		upstream := new(mockRegistry)
		upstream.On("CheckVAT", mock.Anything, "FI", "12345678").Return(true, nil).Twice()

		r := vies.NewCachedRegistry(upstream, vies.NewMemoryStore(10), vies.WithTTL(time.Millisecond))

		_, err := r.CheckVAT(ctx, "FI", "12345678")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = r.CheckVAT(ctx, "FI", "12345678")
		require.NoError(t, err)

		upstream.AssertExpectations(t)
	})
}

// blockingRegistry holds every call until release is closed.
type blockingRegistry struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingRegistry) CheckVAT(ctx context.Context, _, _ string) (bool, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// countingStore reports how many reads were made.
type countingStore struct {
	*vies.MemoryStore
	gets atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, key string) (bool, bool, error) {
	defer s.gets.Add(1)
	return s.MemoryStore.Get(ctx, key)
}

func TestCachedRegistry_SharesInflightLookups(t *testing.T) {
	t.Parallel()

	const callers = 8

	upstream := &blockingRegistry{release: make(chan struct{})}
	store := &countingStore{MemoryStore: vies.NewMemoryStore(10)}
	r := vies.NewCachedRegistry(upstream, store)

	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			valid, err := r.CheckVAT(context.Background(), "SK", "1234567890")
			assert.NoError(t, err)
			results[i] = valid
		}()
	}

	require.Eventually(t, func() bool { return store.gets.Load() == callers }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(upstream.release)
	wg.Wait()

	assert.Equal(t, int32(1), upstream.calls.Load())
	for _, valid := range results {
		assert.True(t, valid)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vies.NewMemoryStore(0)

	_, found, err := s.Get(ctx, "vat:DE:123456789")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "vat:DE:123456789", false, time.Hour))
	valid, found, err := s.Get(ctx, "vat:DE:123456789")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, valid)

	require.NoError(t, s.Set(ctx, "vat:NL:123456789B01", true, time.Millisecond))
	assert.Equal(t, 2, s.Len())
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, s.Purge())
	assert.Equal(t, 1, s.Len())
}

func TestCachedRegistry_CallerCancellation(t *testing.T) {
	t.Parallel()

	upstream := &blockingRegistry{release: make(chan struct{})}
	store := &countingStore{MemoryStore: vies.NewMemoryStore(10)}
	r := vies.NewCachedRegistry(upstream, store)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.CheckVAT(firstCtx, "SK", "1234567890")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return upstream.calls.Load() == 1 }, time.Second, time.Millisecond)

	type answer struct {
		valid bool
		err   error
	}
	second := make(chan answer, 1)
	go func() {
		valid, err := r.CheckVAT(context.Background(), "SK", "1234567890")
		second <- answer{valid, err}
	}()
	require.Eventually(t, func() bool { return store.gets.Load() == 2 }, time.Second, time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(upstream.release)
	got := <-second
	require.NoError(t, got.err)
	assert.True(t, got.valid)
	assert.Equal(t, int32(1), upstream.calls.Load())

	valid, found, err := store.Get(context.Background(), "vat:SK:1234567890")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, valid)
}

func TestCachedRegistry_LookupTimeout(t *testing.T) {
	t.Parallel()

	upstream := &blockingRegistry{release: make(chan struct{})}
	r := vies.NewCachedRegistry(upstream, vies.NewMemoryStore(10), vies.WithLookupTimeout(10*time.Millisecond))

	_, err := r.CheckVAT(context.Background(), "SK", "1234567890")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
