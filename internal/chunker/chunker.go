// Package chunker splits documents into token-bounded windows.
package chunker

import (
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"

	"scholar-abstracts/internal/tokenizer"
)

// ErrInvalidLimit indicates a non-positive window size or chunk cap.
var ErrInvalidLimit = errors.New("chunker limit must be positive")

// Chunk is a contiguous slice of a document's token sequence materialized as text.
// Start and End form the half-open token range [Start, End) in the document.
type Chunk struct {
	Index      int
	Text       string
	TokenCount int
	Start      int
	End        int
}

// Result is the outcome of Split.
type Result struct {
	// Chunks holds at most MaxChunks windows in document order.
	Chunks []Chunk

	// TotalTokens is the token count of the whole document.
	TotalTokens int

	// TotalWindows is the number of windows the document needs before the cap.
	// Tokens past the last kept window are counted in full-size windows.
	TotalWindows int
}

// Dropped returns the number of trailing windows excluded by the chunk cap.
func (r Result) Dropped() int {
	return r.TotalWindows - len(r.Chunks)
}

// Chunker splits text into windows of at most maxTokens tokens.
type Chunker struct {
	codec     tokenizer.Codec
	maxTokens int
	maxChunks int
}

// New creates a Chunker. maxChunks bounds how many windows Split keeps.
func New(codec tokenizer.Codec, maxTokens, maxChunks int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens per chunk %d", ErrInvalidLimit, maxTokens)
	}
	if maxChunks <= 0 {
		return nil, fmt.Errorf("%w: max chunks %d", ErrInvalidLimit, maxChunks)
	}
	return &Chunker{codec: codec, maxTokens: maxTokens, maxChunks: maxChunks}, nil
}

// MaxTokens returns the window size.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// MaxChunks returns the chunk cap applied by Split.
func (c *Chunker) MaxChunks() int {
	return c.maxChunks
}

// Windows lazily yields every window of text in document order, ignoring the
// chunk cap. Each iteration re-encodes text, so the sequence can be ranged
// over any number of times.
func (c *Chunker) Windows(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		c.windows(text, c.codec.Encode(text))(yield)
	}
}

// Split returns the first MaxChunks windows of text. Windows past the cap are
// never decoded.
func (c *Chunker) Split(text string) Result {
	tokens := c.codec.Encode(text)
	res := Result{TotalTokens: len(tokens)}

	end := 0
	for chunk := range c.windows(text, tokens) {
		res.Chunks = append(res.Chunks, chunk)
		end = chunk.End
		if len(res.Chunks) == c.maxChunks {
			break
		}
	}
	res.TotalWindows = len(res.Chunks)
	if rest := len(tokens) - end; rest > 0 {
		res.TotalWindows += windowCount(rest, c.maxTokens)
	}
	return res
}

func (c *Chunker) windows(text string, tokens tokenizer.Tokens) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if len(tokens) <= c.maxTokens {
			yield(Chunk{Index: 0, Text: text, TokenCount: len(tokens), Start: 0, End: len(tokens)})
			return
		}

		for i, start := 0, 0; start < len(tokens); i++ {
			end, text := c.window(tokens, start)
			chunk := Chunk{
				Index:      i,
				Text:       text,
				TokenCount: end - start,
				Start:      start,
				End:        end,
			}
			if !yield(chunk) {
				return
			}
			start = end
		}
	}
}

// window decodes the window starting at start. A byte-level codec can place
// the boundary inside a multi-byte character; the window then ends up to
// utf8.UTFMax-1 tokens earlier so the character is decoded whole by the next
// window. When no shorter window ends on a character boundary the full window
// is kept.
func (c *Chunker) window(tokens tokenizer.Tokens, start int) (int, string) {
	end := min(start+c.maxTokens, len(tokens))
	text := c.codec.Decode(tokens[start:end])
	if end == len(tokens) || endsOnRune(text) {
		return end, text
	}
	for e := end - 1; e > start && e > end-utf8.UTFMax; e-- {
		if t := c.codec.Decode(tokens[start:e]); endsOnRune(t) {
			return e, t
		}
	}
	return end, text
}

// endsOnRune reports whether s does not end in a truncated UTF-8 sequence.
func endsOnRune(s string) bool {
	if s == "" {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError || size > 1
}

// windowCount returns ceil(total/size), with a single window for short input.
func windowCount(total, size int) int {
	if total <= size {
		return 1
	}
	return (total + size - 1) / size
}
