package cache

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_Basic(t *testing.T) {
	c := NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used.
	c.Set("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_UpdateAndDelete(t *testing.T) {
	c := NewLRU[string, int](0)

	c.Set("a", 1)
	c.Set("a", 2)
	v, _ := c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())

	c.Delete("a")
	c.Delete("missing")
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRU[string, int](10)
	for i := 0; i < 6; i++ {
		prefix := "even"
		if i%2 == 1 {
			prefix = "odd"
		}
		c.Set(prefix+strconv.Itoa(i), i)
	}

	c.Invalidate(func(key string) bool { return strings.HasPrefix(key, "odd") })
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("odd1")
	assert.False(t, ok)
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int, int](64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Set(i%128, g)
				c.Get(i % 97)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
