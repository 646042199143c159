package presence

import (
	"sync"
	"testing"

	"netbot/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestMarkPresentThenAbsent(t *testing.T) {
	registry := NewRegistry()
	id := common.UserId("111")

	registry.MarkPresent(id)
	assert.True(t, registry.IsPresent(id))

	registry.MarkAbsent(id)
	assert.False(t, registry.IsPresent(id))
}

func TestMarkPresentIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	id := common.UserId("111")

	registry.MarkPresent(id)
	registry.MarkPresent(id)
	assert.True(t, registry.IsPresent(id))
	assert.Equal(t, []common.UserId{id}, registry.Present())

	registry.MarkAbsent(id)
	assert.False(t, registry.IsPresent(id))
}

func TestUnknownUserIsAbsent(t *testing.T) {
	registry := NewRegistry()
	assert.False(t, registry.IsPresent("never-seen"))

	registry.MarkAbsent("never-joined")
	assert.False(t, registry.IsPresent("never-joined"))
	assert.Empty(t, registry.Present())
}

func TestLastWriteWins(t *testing.T) {
	registry := NewRegistry()
	registry.MarkPresent("1")
	registry.MarkAbsent("1")
	registry.MarkPresent("1")
	assert.True(t, registry.IsPresent("1"))
}

func TestPresentIsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.MarkPresent("3")
	registry.MarkPresent("1")
	registry.MarkPresent("2")
	registry.MarkAbsent("2")
	assert.Equal(t, []common.UserId{"1", "3"}, registry.Present())
}

func TestConcurrentUpdates(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := common.UserId(string(rune('a' + i%5)))
			registry.MarkPresent(id)
			registry.IsPresent(id)
		}(i)
	}
	wg.Wait()
	assert.Len(t, registry.Present(), 5)
}
