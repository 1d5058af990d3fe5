// Package article turns a user message into text to summarize.
package article

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"mvdan.cc/xurls/v2"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	clientTimeout = 20 * time.Second
	maxPageBytes  = 5 << 20
)

var ErrNoText = errors.New("page has no readable text")

type Extractor struct {
	client *http.Client
	cache  *pageCache
	now    func() time.Time
	log    *slog.Logger
}

// NewExtractor caches up to cacheSize extracted pages for cacheTTL each. A
// non-positive size or TTL disables the cache.
func NewExtractor(cacheSize int, cacheTTL time.Duration, log *slog.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: clientTimeout},
		cache:  newPageCache(cacheSize, cacheTTL),
		now:    time.Now,
		log:    log,
	}
}

// SingleURL returns the message's URL when the whole message is one https
// link.
func SingleURL(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return "", false
	}

	match := httpsURLRe.FindString(text)
	if match == "" || match != text {
		return "", false
	}

	return match, true
}

// FromMessage returns the text to summarize. A message that is a single link
// is replaced by the linked page's article text; anything else is returned as
// is.
func (e *Extractor) FromMessage(ctx context.Context, text string) (string, bool, error) {
	pageURL, ok := SingleURL(text)
	if !ok {
		return text, false, nil
	}

	extracted, err := e.Fetch(ctx, pageURL)
	if err != nil {
		return "", true, fmt.Errorf("fetch article: %w", err)
	}

	return extracted, true, nil
}

// Fetch returns the readable text of pageURL, served from cache when the page
// was extracted recently.
func (e *Extractor) Fetch(ctx context.Context, pageURL string) (string, error) {
	if text, ok := e.cache.get(pageURL, e.now()); ok {
		e.log.DebugContext(ctx, "Article is served from cache",
			"url", pageURL)

		return text, nil
	}

	text, err := e.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	e.cache.put(pageURL, text, e.now())

	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			e.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", pageURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if parsed, readErr := readability.FromReader(bytes.NewReader(page), parsedURL); readErr == nil {
		if content := normalize(parsed.TextContent); content != "" {
			return content, nil
		}
	} else {
		e.log.DebugContext(ctx, "Readability failed so paragraphs will be used",
			"error", readErr,
			"url", pageURL)
	}

	content, err := paragraphs(page)
	if err != nil {
		return "", err
	}

	return content, nil
}

func paragraphs(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	var parts []string
	doc.Find("article p, main p, p").Each(func(_ int, s *goquery.Selection) {
		if text := normalize(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	content := strings.Join(dedupe(parts), "\n\n")
	if content == "" {
		return "", ErrNoText
	}

	return content, nil
}

func normalize(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}

func dedupe(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := parts[:0]

	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	return out
}
