package engine

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"tally/symtab"
)

type compiledCache interface {
	Get(key string) (*Compiled, bool)
	Add(key string, c *Compiled)
	Len() int
}

// cacheKey keys compiled text by the shape of the table it was checked
// against. Tables that cannot fingerprint themselves are not cached, and
// neither are programs with folded host calls, since the fingerprint does
// not cover function bodies.
func cacheKey(text string, st symtab.SymbolTable, simplify bool) (string, bool) {
	fp, ok := st.(symtab.Fingerprinter)
	if !ok {
		return "", false
	}
	key := strconv.FormatUint(fp.Fingerprint(), 16)
	if simplify {
		key += "s"
	}
	return key + ":" + text, true
}

type lruCache struct {
	cache   *lru.Cache[string, *Compiled]
	metrics *metrics
}

func newCache(size int, m *metrics) (compiledCache, error) {
	if size <= 0 {
		return noopCache{}, nil
	}
	c, err := lru.New[string, *Compiled](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{cache: c, metrics: m}, nil
}

func (c *lruCache) Get(key string) (*Compiled, bool) {
	if v, ok := c.cache.Get(key); ok {
		c.metrics.cacheRequests.WithLabelValues("hit").Inc()
		return v, true
	}
	c.metrics.cacheRequests.WithLabelValues("miss").Inc()
	return nil, false
}

func (c *lruCache) Add(key string, v *Compiled) {
	c.cache.Add(key, v)
}

func (c *lruCache) Len() int {
	return c.cache.Len()
}

type noopCache struct{}

func (noopCache) Get(string) (*Compiled, bool) { return nil, false }
func (noopCache) Add(string, *Compiled)        {}
func (noopCache) Len() int                     { return 0 }
