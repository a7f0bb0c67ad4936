//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_RecyclesBrowserAfterMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
	require.NoError(t, err)
	defer manager.Close()

	first, release, err := manager.Acquire()
	require.NoError(t, err)
	release()
	for range 2 {
		_, release, err := manager.Acquire()
		require.NoError(t, err)
		release()
	}

	second, release, err := manager.Acquire()
	require.NoError(t, err)
	defer release()

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, manager.Recycles())
}

func TestBrowserManager_DoesNotRecycleBeforeMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
	require.NoError(t, err)
	defer manager.Close()

	first, release, err := manager.Acquire()
	require.NoError(t, err)
	release()

	same, release, err := manager.Acquire()
	require.NoError(t, err)
	release()

	assert.Same(t, first, same)
	assert.Equal(t, 0, manager.Recycles())
}

func TestBrowserManager_KeepsRetiredBrowserUntilReleased(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(1))
	require.NoError(t, err)
	defer manager.Close()

	old, releaseOld, err := manager.Acquire()
	require.NoError(t, err)

	_, release, err := manager.Acquire()
	require.NoError(t, err)
	defer release()

	// The retired browser still serves the page acquired from it.
	_, err = old.Version()
	require.NoError(t, err)

	releaseOld()
}

func TestBrowserManager_AcquireAfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, _, err = manager.Acquire()
	assert.Equal(t, doccrawl.EINVALID, doccrawl.ErrorCode(err))
}
