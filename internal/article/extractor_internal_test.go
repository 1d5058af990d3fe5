package article

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testCacheSize = 8

const testPage = `<!doctype html>
<html><head><title>Test article</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Test article</h1>
<p>The first paragraph explains what the article is about in some detail so that it reads like real prose.</p>
<p>The second paragraph adds more context, numbers like 42, and a conclusion for the reader to consider.</p>
</article>
</body></html>`

func newTLSExtractor(t *testing.T, handler http.Handler) (*Extractor, string) {
	t.Helper()

	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	e := NewExtractor(testCacheSize, time.Hour, slog.Default())
	e.client = srv.Client()

	return e, srv.URL
}

func TestSingleURL(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"Bare", "https://example.com/post", "https://example.com/post", true},
		{"Trimmed", "  https://example.com/post \n", "https://example.com/post", true},
		{"HTTP", "http://example.com/post", "", false},
		{"Sentence", "read https://example.com/post please", "", false},
		{"Text", "just some words", "", false},
		{"Empty", "", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := SingleURL(test.in)
			if ok != test.wantOK || got != test.want {
				t.Errorf("SingleURL(%q) = (%q, %v), want (%q, %v)", test.in, got, ok, test.want, test.wantOK)
			}
		})
	}
}

func TestFromMessagePassesPlainText(t *testing.T) {
	e := NewExtractor(testCacheSize, time.Hour, slog.Default())

	got, fetched, err := e.FromMessage(context.Background(), "plain text to summarize")
	if err != nil {
		t.Fatalf("from message: %v", err)
	}
	if fetched {
		t.Fatalf("expected plain text not to be fetched")
	}
	if got != "plain text to summarize" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFromMessageFetchesArticle(t *testing.T) {
	var gotUA string
	e, baseURL := newTLSExtractor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	}))

	got, fetched, err := e.FromMessage(context.Background(), baseURL+"/post")
	if err != nil {
		t.Fatalf("from message: %v", err)
	}
	if !fetched {
		t.Fatalf("expected link to be fetched")
	}

	if !strings.Contains(got, "The first paragraph explains") ||
		!strings.Contains(got, "The second paragraph adds more context") {
		t.Fatalf("expected article paragraphs, got %q", got)
	}
	if gotUA != userAgent {
		t.Fatalf("unexpected user agent: %q", gotUA)
	}
}

func TestFetchRejectsBadStatus(t *testing.T) {
	e, baseURL := newTLSExtractor(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := e.Fetch(context.Background(), baseURL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestParagraphsFallback(t *testing.T) {
	got, err := paragraphs([]byte(`<div><p> one  two </p><p></p><p>one two</p><p>three</p></div>`))
	if err != nil {
		t.Fatalf("paragraphs: %v", err)
	}

	if got != "one two\n\nthree" {
		t.Fatalf("unexpected paragraphs: %q", got)
	}
}

func TestParagraphsEmptyPage(t *testing.T) {
	if _, err := paragraphs([]byte(`<html><body><div>menu</div></body></html>`)); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestFetchServesRepeatedLinkFromCache(t *testing.T) {
	var requests atomic.Int32
	e, baseURL := newTLSExtractor(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	}))

	first, err := e.Fetch(context.Background(), baseURL+"/post")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	second, err := e.Fetch(context.Background(), baseURL+"/post")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if n := requests.Load(); n != 1 {
		t.Fatalf("expected one request, got %d", n)
	}
	if first != second {
		t.Fatalf("cached text differs from fetched text")
	}
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	e, baseURL := newTLSExtractor(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(testPage))
	}))

	if _, err := e.Fetch(context.Background(), baseURL+"/post"); err == nil {
		t.Fatalf("expected error for 502")
	}

	fail.Store(false)
	if _, err := e.Fetch(context.Background(), baseURL+"/post"); err != nil {
		t.Fatalf("fetch after recovery: %v", err)
	}
}

func TestFetchRefetchesAfterConfiguredTTL(t *testing.T) {
	var requests atomic.Int32
	e, baseURL := newTLSExtractor(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(testPage))
	}))

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	if _, err := e.Fetch(context.Background(), baseURL+"/post"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	now = now.Add(59 * time.Minute)
	if _, err := e.Fetch(context.Background(), baseURL+"/post#comments"); err != nil {
		t.Fatalf("fetch within TTL: %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("expected the fragment link to hit the cache, got %d requests", n)
	}

	now = now.Add(2 * time.Minute)
	if _, err := e.Fetch(context.Background(), baseURL+"/post"); err != nil {
		t.Fatalf("fetch after TTL: %v", err)
	}
	if n := requests.Load(); n != 2 {
		t.Fatalf("expected a refetch after the TTL, got %d requests", n)
	}
}

func TestFetchWithDisabledCache(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(testPage))
	}))
	t.Cleanup(srv.Close)

	e := NewExtractor(0, time.Hour, slog.Default())
	e.client = srv.Client()

	for i := 0; i < 2; i++ {
		if _, err := e.Fetch(context.Background(), srv.URL+"/post"); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}

	if n := requests.Load(); n != 2 {
		t.Fatalf("expected every fetch to reach the server, got %d requests", n)
	}
}
