package bloom_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/doccrawl/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("https://example.com/docs/intro"))

	f.Add("https://example.com/docs/intro")

	assert.True(t, f.Test("https://example.com/docs/intro"))
	assert.False(t, f.Test("https://example.com/docs/guide"))
}

func TestFilter_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(10000, 0.01)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				f.Add(fmt.Sprintf("https://example.com/docs/%d/%d", w, i))
			}
		}()
	}
	wg.Wait()

	// No false negatives, whatever the interleaving.
	for w := range 8 {
		for i := range 500 {
			assert.True(t, f.Test(fmt.Sprintf("https://example.com/docs/%d/%d", w, i)))
		}
	}
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 10000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFilter(numItems, fpRate)

	for i := range numItems {
		f.Add(fmt.Sprintf("https://example.com/added/%d", i))
	}

	falsePositives := 0
	for i := range testProbes {
		if f.Test(fmt.Sprintf("https://example.com/notadded/%d", i)) {
			falsePositives++
		}
	}

	// Allow up to 2% to account for statistical variance.
	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}
