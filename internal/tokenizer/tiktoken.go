package tokenizer

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const (
	// EncodingCL100kBase is the default BPE encoding.
	EncodingCL100kBase = "cl100k_base"

	// downloadTimeout bounds a single rank file download.
	downloadTimeout = 30 * time.Second
)

var initLoaderOnce sync.Once

// InitBPELoader registers a rank file loader with tiktoken-go that keeps
// downloaded files under cacheDir. Only the first call has any effect.
// Without it tiktoken-go uses its own loader and cache location.
func InitBPELoader(cacheDir string) {
	initLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(&cachedBPELoader{cacheDir: cacheDir, fetch: downloadRankFile})
	})
}

// cachedBPELoader implements tiktoken.BpeLoader backed by a local cache directory.
type cachedBPELoader struct {
	cacheDir string
	fetch    func(url string) ([]byte, error)
	mu       sync.Mutex
}

// LoadTiktokenBpe satisfies tiktoken.BpeLoader.
func (l *cachedBPELoader) LoadTiktokenBpe(rankFileURL string) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cacheFile := filepath.Join(l.cacheDir, filepath.Base(rankFileURL))
	if data, err := os.ReadFile(cacheFile); err == nil {
		return parseRanks(data)
	}

	data, err := l.fetch(rankFileURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", filepath.Base(rankFileURL), err)
	}

	// A cache write failure only costs a re-download next time.
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		slog.Warn("failed to create tokenizer cache directory",
			slog.String("path", l.cacheDir),
			slog.Any("error", err))
	} else if err := writeFileAtomic(cacheFile, data); err != nil {
		slog.Warn("failed to persist tokenizer rank file",
			slog.String("path", cacheFile),
			slog.Any("error", err))
	}

	return parseRanks(data)
}

// parseRanks parses the tiktoken rank format: one "<base64 token> <rank>" per line.
func parseRanks(data []byte) (map[string]int, error) {
	ranks := make(map[string]int, 100000)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, " ")
		if len(parts) != 2 {
			continue
		}
		token, err := base64.StdEncoding.DecodeString(parts[0])
		if err != nil {
			return nil, fmt.Errorf("decode rank token: %w", err)
		}
		rank, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse rank: %w", err)
		}
		ranks[string(token)] = rank
	}
	return ranks, nil
}

func downloadRankFile(url string) ([]byte, error) {
	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Get(url) //nolint:noctx
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// TiktokenCodec implements Codec with a tiktoken BPE encoding.
type TiktokenCodec struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTiktokenCodec loads the named encoding (e.g. "cl100k_base").
// Any failure is wrapped in ErrCodecUnavailable.
func NewTiktokenCodec(encodingName string) (*TiktokenCodec, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("%w: load encoding %q: %v", ErrCodecUnavailable, encodingName, err)
	}
	return &TiktokenCodec{encoding: enc, name: encodingName}, nil
}

// Name returns the encoding name.
func (c *TiktokenCodec) Name() string {
	return c.name
}

// Encode treats special-token text as ordinary text, so no special ids are produced.
func (c *TiktokenCodec) Encode(text string) Tokens {
	return c.encoding.Encode(text, nil, nil)
}

// Decode converts tokens back to text.
func (c *TiktokenCodec) Decode(tokens Tokens) string {
	return c.encoding.Decode(tokens)
}

// Count returns the number of tokens in text.
func (c *TiktokenCodec) Count(text string) int {
	return len(c.Encode(text))
}
