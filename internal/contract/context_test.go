package contract

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForcedRefresh(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsForcedRefresh(ctx))
	assert.True(t, IsForcedRefresh(WithForcedRefresh(ctx)))

	ctx = context.WithValue(ctx, forcedRefreshKey, "yes")
	assert.False(t, IsForcedRefresh(ctx))
}

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithForcedRefresh(context.Background())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.True(t, IsForcedRefresh(ctx), "Goroutine %d: IsForcedRefresh should be true", id)
		}(i)
	}
	wg.Wait()
}
