package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-abstracts/internal/resilience/circuitbreaker"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav>Journal home</nav>
	<article>
		<h1>Test Article Title</h1>
		<p>This is the first paragraph of the article content.</p>
		<p>This is the second paragraph with more important information.</p>
	</article>
</body>
</html>`

// localConfig allows the loopback httptest server.
func localConfig() ContentFetchConfig {
	cfg := DefaultConfig()
	cfg.DenyPrivateIPs = false
	return cfg
}

func TestFetchContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	content, err := NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Test Article Title This is the first paragraph of the article content. "+
		"This is the second paragraph with more important information.", content)
}

func TestFetchContent_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	content, err := NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	assert.Contains(t, content, "first paragraph")
}

func TestFetchContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		mutate  func(*ContentFetchConfig)
		wantErr error
		wantMsg string
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
			wantMsg: "HTTP 404",
		},
		{
			name: "body too large",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
			},
			mutate:  func(c *ContentFetchConfig) { c.MaxBodySize = 1024 },
			wantErr: ErrBodyTooLarge,
		},
		{
			name: "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			mutate:  func(c *ContentFetchConfig) { c.Timeout = 20 * time.Millisecond },
			wantErr: ErrTimeout,
		},
		{
			name: "too many redirects",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
			},
			mutate:  func(c *ContentFetchConfig) { c.MaxRedirects = 2 },
			wantErr: ErrTooManyRedirects,
		},
		{
			name: "page without text",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html><body><script>init()</script></body></html>`))
			},
			wantErr: ErrNoReadableContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cfg := localConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			_, err := NewReadabilityFetcher(cfg).FetchContent(context.Background(), server.URL+"/")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestFetchContent_InvalidURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		deny    bool
		wantErr error
	}{
		{name: "ftp scheme", url: "ftp://example.com/paper.pdf", wantErr: ErrInvalidURL},
		{name: "no host", url: "http://", wantErr: ErrInvalidURL},
		{name: "unparsable", url: "http://[::1", wantErr: ErrInvalidURL},
		{name: "loopback literal", url: "http://127.0.0.1/paper", deny: true, wantErr: ErrPrivateIP},
		{name: "private literal", url: "http://10.1.2.3/paper", deny: true, wantErr: ErrPrivateIP},
		{name: "ipv6 loopback", url: "http://[::1]/paper", deny: true, wantErr: ErrPrivateIP},
		{name: "link local", url: "http://169.254.169.254/latest/meta-data", deny: true, wantErr: ErrPrivateIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DenyPrivateIPs = tt.deny

			_, err := NewReadabilityFetcher(cfg).FetchContent(context.Background(), tt.url)
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
		})
	}
}

func TestFetchContent_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewReadabilityFetcher(localConfig())
	for range 5 {
		_, err := f.FetchContent(context.Background(), server.URL)
		require.Error(t, err)
	}

	_, err := f.FetchContent(context.Background(), server.URL)
	assert.True(t, circuitbreaker.IsRejected(err), "err = %v", err)
	assert.Equal(t, int32(5), hits.Load())
}
