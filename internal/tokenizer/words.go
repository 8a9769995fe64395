package tokenizer

import (
	"strings"
	"sync"
)

// EncodingWords selects WordCodec.
const EncodingWords = "words"

// WordCodec is an offline codec that treats each whitespace-separated word as
// one token. Ids are assigned in first-seen order per codec instance.
// Decoding joins words with single spaces.
type WordCodec struct {
	mu    sync.RWMutex
	ids   map[string]int
	words []string
}

// NewWordCodec creates an empty WordCodec.
func NewWordCodec() *WordCodec {
	return &WordCodec{ids: make(map[string]int)}
}

// Encode returns one id per word.
func (c *WordCodec) Encode(text string) Tokens {
	fields := strings.Fields(text)
	tokens := make(Tokens, len(fields))

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range fields {
		id, ok := c.ids[w]
		if !ok {
			id = len(c.words)
			c.ids[w] = id
			c.words = append(c.words, w)
		}
		tokens[i] = id
	}
	return tokens
}

// Decode joins the words for tokens with single spaces. Unknown ids are skipped.
func (c *WordCodec) Decode(tokens Tokens) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id < 0 || id >= len(c.words) {
			continue
		}
		out = append(out, c.words[id])
	}
	return strings.Join(out, " ")
}

// Count returns the number of words in text.
func (c *WordCodec) Count(text string) int {
	return len(strings.Fields(text))
}
