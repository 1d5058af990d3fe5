package article

import (
	"container/list"
	"net/url"
	"strings"
	"sync"
	"time"
)

// pageCache keeps recently extracted articles so that re-sending the same
// link, or comparing another model pair on it, does not refetch the page.
// Links that differ only in fragment or host case share an entry. Least
// recently used entries go first once the cache is full.
type pageCache struct {
	mu         sync.Mutex
	byURL      map[string]*list.Element
	recency    *list.List
	maxEntries int
	ttl        time.Duration
}

type cachedPage struct {
	url       string
	text      string
	expiresAt time.Time
}

func newPageCache(maxEntries int, ttl time.Duration) *pageCache {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}

	return &pageCache{
		byURL:      make(map[string]*list.Element, maxEntries),
		recency:    list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// cacheKey drops the fragment and lower-cases scheme and host, since neither
// changes the page the server returns. Unparsable links are used as is.
func cacheKey(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

func (c *pageCache) get(pageURL string, now time.Time) (string, bool) {
	if c == nil || pageURL == "" {
		return "", false
	}
	pageURL = cacheKey(pageURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.byURL[pageURL]
	if !ok {
		return "", false
	}

	page := elem.Value.(*cachedPage)
	if now.After(page.expiresAt) {
		c.removeLocked(elem)
		return "", false
	}

	c.recency.MoveToFront(elem)

	return page.text, true
}

func (c *pageCache) put(pageURL, text string, now time.Time) {
	if c == nil || pageURL == "" || text == "" {
		return
	}
	pageURL = cacheKey(pageURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := now.Add(c.ttl)

	if elem, ok := c.byURL[pageURL]; ok {
		page := elem.Value.(*cachedPage)
		page.text = text
		page.expiresAt = expiresAt
		c.recency.MoveToFront(elem)

		return
	}

	c.byURL[pageURL] = c.recency.PushFront(&cachedPage{
		url:       pageURL,
		text:      text,
		expiresAt: expiresAt,
	})

	c.dropExpiredLocked(now)
	for len(c.byURL) > c.maxEntries {
		c.removeLocked(c.recency.Back())
	}
}

func (c *pageCache) len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.byURL)
}

func (c *pageCache) dropExpiredLocked(now time.Time) {
	for elem := c.recency.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cachedPage).expiresAt) {
			c.removeLocked(elem)
		}
		elem = prev
	}
}

func (c *pageCache) removeLocked(elem *list.Element) {
	delete(c.byURL, elem.Value.(*cachedPage).url)
	c.recency.Remove(elem)
}
