package resolve

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hrygo/timexkit/plugin/timex"
)

// parseCache memoizes parsed expressions by their text. Expressions are immutable, so
// cached values are shared between goroutines.
type parseCache struct {
	entries *lru.Cache[string, timex.Expression]
}

// newParseCache returns a cache holding size entries. A size of zero disables caching.
func newParseCache(size int) (*parseCache, error) {
	if size <= 0 {
		return &parseCache{}, nil
	}
	entries, err := lru.New[string, timex.Expression](size)
	if err != nil {
		return nil, err
	}
	return &parseCache{entries: entries}, nil
}

func (c *parseCache) parse(text string) (timex.Expression, error) {
	text = strings.TrimSpace(text)
	if c.entries != nil {
		if e, ok := c.entries.Get(text); ok {
			return e, nil
		}
	}
	e, err := timex.Parse(text)
	if err != nil {
		return timex.Expression{}, err
	}
	if c.entries != nil {
		c.entries.Add(text, e)
	}
	return e, nil
}

func (c *parseCache) parseAll(texts []string) ([]timex.Expression, error) {
	out := make([]timex.Expression, len(texts))
	for i, text := range texts {
		e, err := c.parse(text)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (c *parseCache) len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
