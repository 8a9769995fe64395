package summarizer

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// spyMetrics records summarizer metrics for assertions.
type spyMetrics struct {
	mu         sync.Mutex
	lengths    []int
	exceeded   int
	compliance []bool
	durations  int
}

func (s *spyMetrics) RecordLength(tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lengths = append(s.lengths, tokens)
}

func (s *spyMetrics) RecordBudgetExceeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceeded++
}

func (s *spyMetrics) RecordCompliance(within bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compliance = append(s.compliance, within)
}

func (s *spyMetrics) RecordDuration(time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations++
}

// countingServer serves handler and counts the requests it receives.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
