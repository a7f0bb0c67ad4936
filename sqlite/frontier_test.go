package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHost = "https://example.com"

func setupFrontier(t *testing.T, opts ...sqlite.FrontierOption) *sqlite.FrontierStore {
	t.Helper()
	return sqlite.NewFrontierStore(setupTestDB(t), opts...)
}

func TestFrontierStore_Seed(t *testing.T) {
	t.Parallel()

	t.Run("records seed as pending", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))

		page, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)
		assert.NotEmpty(t, page.ID)
		assert.Equal(t, testHost, page.Host)
		assert.Equal(t, doccrawl.PageStatusPending, page.Status)
		assert.False(t, page.DiscoveredAt.IsZero())
		assert.True(t, page.ScrapedAt.IsZero())
	})

	t.Run("leaves a known URL untouched", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))
		page, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)
		require.NoError(t, store.MarkScraped(ctx, page))

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))

		page, err = store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)
		assert.Equal(t, doccrawl.PageStatusScraped, page.Status)

		stats, err := store.Stats(ctx, testHost)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Total())
	})

	t.Run("rejects empty URL", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)

		err := store.Seed(context.Background(), testHost, "")
		assert.Equal(t, doccrawl.EINVALID, doccrawl.ErrorCode(err))
	})
}

func TestFrontierStore_EnqueueIfNew(t *testing.T) {
	t.Parallel()

	t.Run("inserts unknown URL", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		inserted, err := store.EnqueueIfNew(ctx, testHost, testHost+"/docs/a")
		require.NoError(t, err)
		assert.True(t, inserted)

		pending, err := store.Pending(ctx, testHost)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, testHost+"/docs/a", pending[0].URL)
	})

	t.Run("ignores known URL", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		_, err := store.EnqueueIfNew(ctx, testHost, testHost+"/docs/a")
		require.NoError(t, err)

		inserted, err := store.EnqueueIfNew(ctx, testHost, testHost+"/docs/a")
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("ignores URL recorded by a previous process", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		require.NoError(t, sqlite.NewFrontierStore(db).Seed(ctx, testHost, testHost+"/docs"))

		// A fresh store starts with an empty filter.
		inserted, err := sqlite.NewFrontierStore(db).EnqueueIfNew(ctx, testHost, testHost+"/docs")
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("answers URLs of an earlier run without writing", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		earlier := sqlite.NewFrontierStore(db)
		require.NoError(t, earlier.Seed(ctx, testHost, testHost+"/docs"))
		for i := range 20 {
			_, err := earlier.EnqueueIfNew(ctx, testHost, fmt.Sprintf("%s/docs/%d", testHost, i))
			require.NoError(t, err)
		}

		// Any insert now fails, so known URLs must be answered by reads alone.
		_, err := db.ExecContext(ctx, "PRAGMA query_only = ON")
		require.NoError(t, err)

		resumed := sqlite.NewFrontierStore(db)
		for i := range 20 {
			inserted, err := resumed.EnqueueIfNew(ctx, testHost, fmt.Sprintf("%s/docs/%d", testHost, i))
			require.NoError(t, err, "page %d", i)
			assert.False(t, inserted)
		}

		_, err = resumed.EnqueueIfNew(ctx, testHost, testHost+"/docs/new")
		assert.Equal(t, doccrawl.ESTORAGE, doccrawl.ErrorCode(err), "unknown URLs still take the write path")
	})

	t.Run("never drops URLs when the filter is saturated", func(t *testing.T) {
		t.Parallel()

		// A tiny filter answers "maybe seen" for almost everything.
		store := setupFrontier(t, sqlite.WithExpectedURLs(1))
		ctx := context.Background()

		for i := range 200 {
			inserted, err := store.EnqueueIfNew(ctx, testHost, fmt.Sprintf("%s/docs/%d", testHost, i))
			require.NoError(t, err)
			require.True(t, inserted, "page %d", i)
		}

		stats, err := store.Stats(ctx, testHost)
		require.NoError(t, err)
		assert.Equal(t, 200, stats.Pending)
	})

	t.Run("inserts each URL exactly once under concurrency", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		const workers = 8
		const urls = 50

		var mu sync.Mutex
		insertedCount := make(map[string]int)

		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range urls {
					url := fmt.Sprintf("%s/docs/%d", testHost, i)
					inserted, err := store.EnqueueIfNew(ctx, testHost, url)
					assert.NoError(t, err)
					if inserted {
						mu.Lock()
						insertedCount[url]++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		assert.Len(t, insertedCount, urls)
		for url, n := range insertedCount {
			assert.Equal(t, 1, n, url)
		}
	})
}

func TestFrontierStore_Pending(t *testing.T) {
	t.Parallel()

	t.Run("returns pages in discovery order", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		urls := []string{testHost + "/docs/c", testHost + "/docs/a", testHost + "/docs/b"}
		for _, u := range urls {
			_, err := store.EnqueueIfNew(ctx, testHost, u)
			require.NoError(t, err)
		}

		pending, err := store.Pending(ctx, testHost)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		for i, page := range pending {
			assert.Equal(t, urls[i], page.URL)
		}
	})

	t.Run("excludes other hosts and scraped pages", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))
		_, err := store.EnqueueIfNew(ctx, testHost, testHost+"/docs/a")
		require.NoError(t, err)
		_, err = store.EnqueueIfNew(ctx, "https://other.com", "https://other.com/docs")
		require.NoError(t, err)

		page, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)
		require.NoError(t, store.MarkScraped(ctx, page))

		pending, err := store.Pending(ctx, testHost)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, testHost+"/docs/a", pending[0].URL)
	})

	t.Run("returns empty for unknown host", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)

		pending, err := store.Pending(context.Background(), "https://unknown.com")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestFrontierStore_MarkScraped(t *testing.T) {
	t.Parallel()

	t.Run("marks page scraped with hash", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))
		page, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)

		page.ContentHash = "abc123"
		require.NoError(t, store.MarkScraped(ctx, page))
		assert.True(t, page.IsScraped())

		stored, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)
		assert.Equal(t, doccrawl.PageStatusScraped, stored.Status)
		assert.Equal(t, "abc123", stored.ContentHash)
		assert.False(t, stored.ScrapedAt.IsZero())
	})

	t.Run("returns not found for unknown page", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)

		err := store.MarkScraped(context.Background(), &doccrawl.Page{ID: "missing", URL: testHost + "/x"})
		assert.Equal(t, doccrawl.ENOTFOUND, doccrawl.ErrorCode(err))
	})
}

func TestFrontierStore_RecordFailure(t *testing.T) {
	t.Parallel()

	t.Run("keeps page pending below max attempts", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))
		page, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)

		require.NoError(t, store.RecordFailure(ctx, page, errors.New("timeout"), 3))

		assert.Equal(t, 1, page.Attempts)
		assert.Equal(t, doccrawl.PageStatusPending, page.Status)
		assert.Equal(t, "timeout", page.LastError)

		stored, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Attempts)
		assert.Equal(t, "timeout", stored.LastError)
	})

	t.Run("fails page at max attempts", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)
		ctx := context.Background()

		require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))
		page, err := store.FindPageByURL(ctx, testHost+"/docs")
		require.NoError(t, err)

		for range 3 {
			require.NoError(t, store.RecordFailure(ctx, page, errors.New("boom"), 3))
		}

		assert.Equal(t, 3, page.Attempts)
		assert.Equal(t, doccrawl.PageStatusFailed, page.Status)

		pending, err := store.Pending(ctx, testHost)
		require.NoError(t, err)
		assert.Empty(t, pending)

		stats, err := store.Stats(ctx, testHost)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
	})

	t.Run("returns not found for unknown page", func(t *testing.T) {
		t.Parallel()

		store := setupFrontier(t)

		err := store.RecordFailure(context.Background(), &doccrawl.Page{ID: "missing"}, errors.New("x"), 3)
		assert.Equal(t, doccrawl.ENOTFOUND, doccrawl.ErrorCode(err))
	})
}

func TestFrontierStore_ResetFailed(t *testing.T) {
	t.Parallel()

	store := setupFrontier(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, testHost, testHost+"/docs"))
	page, err := store.FindPageByURL(ctx, testHost+"/docs")
	require.NoError(t, err)
	require.NoError(t, store.RecordFailure(ctx, page, errors.New("boom"), 1))

	n, err := store.ResetFailed(ctx, testHost)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := store.FindPageByURL(ctx, testHost+"/docs")
	require.NoError(t, err)
	assert.Equal(t, doccrawl.PageStatusPending, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
	assert.Empty(t, stored.LastError)

	n, err = store.ResetFailed(ctx, testHost)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFrontierStore_Stats(t *testing.T) {
	t.Parallel()

	store := setupFrontier(t)
	ctx := context.Background()

	for i := range 4 {
		_, err := store.EnqueueIfNew(ctx, testHost, fmt.Sprintf("%s/docs/%d", testHost, i))
		require.NoError(t, err)
	}
	scraped, err := store.FindPageByURL(ctx, testHost+"/docs/0")
	require.NoError(t, err)
	require.NoError(t, store.MarkScraped(ctx, scraped))
	failed, err := store.FindPageByURL(ctx, testHost+"/docs/1")
	require.NoError(t, err)
	require.NoError(t, store.RecordFailure(ctx, failed, errors.New("boom"), 1))

	stats, err := store.Stats(ctx, testHost)
	require.NoError(t, err)
	assert.Equal(t, doccrawl.FrontierStats{Pending: 2, Scraped: 1, Failed: 1}, *stats)
	assert.Equal(t, 4, stats.Total())
}

func TestFrontierStore_FindPageByURL(t *testing.T) {
	t.Parallel()

	store := setupFrontier(t)

	_, err := store.FindPageByURL(context.Background(), testHost+"/missing")
	assert.Equal(t, doccrawl.ENOTFOUND, doccrawl.ErrorCode(err))
}
