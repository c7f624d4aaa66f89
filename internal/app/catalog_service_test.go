package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product_registration_bot/internal/infra/logger"
)

func TestCatalogService_CachesLoads(t *testing.T) {
	source := &fakeCatalogSource{cat: testCatalog()}
	svc := NewCatalogService(source, time.Minute, logger.Discard())

	first, err := svc.Load(context.Background())
	require.NoError(t, err)
	second, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, source.calls)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 2, source.calls)
}

func TestCatalogService_ConcurrentColdLoads(t *testing.T) {
	source := &fakeCatalogSource{cat: testCatalog()}
	svc := NewCatalogService(source, time.Minute, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.Load(context.Background())
			assert.NoError(t, err)
			assert.Len(t, c.Stores, 3)
		}()
	}
	wg.Wait()

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.LessOrEqual(t, source.calls, 8)
	assert.GreaterOrEqual(t, source.calls, 1)
}

func TestCatalogService_FailureIsNotCached(t *testing.T) {
	source := &fakeCatalogSource{err: errUnreachable}
	svc := NewCatalogService(source, time.Minute, logger.Discard())

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, errUnreachable)

	source.err = nil
	source.cat = testCatalog()
	c, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, c.Products, 2)
}

func TestSearchStores(t *testing.T) {
	c := testCatalog()

	names := func(keyword string) []string {
		var out []string
		for _, s := range SearchStores(c, keyword) {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"강남점"}, names("강남"))
	assert.Equal(t, []string{"강남점"}, names("서울대리"), "matches agency")
	assert.Equal(t, []string{"AB Bikes"}, names("ab bi"), "ignores case")
	assert.Equal(t, []string{"AB Bikes"}, names("에이비"), "matches alias")
	assert.Equal(t, []string{"부산점"}, names("해운대"), "matches address")
	assert.Equal(t, []string{"강남점", "부산점"}, names("점"))
	assert.Empty(t, names("  "))
	assert.Empty(t, names("광주"))
	assert.Nil(t, SearchStores(nil, "강남"))
}
