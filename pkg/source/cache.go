package source

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies a cached bitmap.
type Key struct {
	Page  int
	Scale float64
}

// newCache returns the LRU of page bitmaps that bounds how many stay
// materialized across the document.
func newCache(size int) *lru.Cache[Key, image.Image] {
	if size < 1 {
		size = 1
	}
	c, err := lru.New[Key, image.Image](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return c
}

// flight is a render in progress and everyone waiting for it.
type flight struct {
	waiters []func(Result)
	// store is set when at least one waiter wants the result cached.
	store bool
}
