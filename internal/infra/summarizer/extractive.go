package summarizer

import (
	"context"
	"strings"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/fallback"
	"scholar-abstracts/internal/tokenizer"
)

// Extractive is an offline summarizer: it keeps leading sentences while they
// fit within the budget's maximum. It needs no network access and is used for
// development, tests and air-gapped runs.
type Extractive struct {
	codec    tokenizer.Codec
	splitter fallback.SentenceSplitter
}

// NewExtractive creates an Extractive summarizer measuring length with codec.
func NewExtractive(codec tokenizer.Codec) *Extractive {
	return &Extractive{codec: codec, splitter: fallback.UAX29Splitter{}}
}

// Summarize returns the longest run of leading sentences whose token count
// does not exceed b.MaxOutput. A first sentence longer than the budget is cut
// to b.MaxOutput tokens.
func (e *Extractive) Summarize(ctx context.Context, inputText string, b budget.LengthBudget) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var kept []string
	used := 0
	for _, sent := range e.splitter.Split(inputText) {
		n := e.codec.Count(sent)
		if used+n > b.MaxOutput {
			break
		}
		kept = append(kept, sent)
		used += n
	}

	if len(kept) == 0 {
		tokens := e.codec.Encode(inputText)
		if len(tokens) > b.MaxOutput {
			tokens = tokens[:max(b.MaxOutput, 0)]
		}
		return strings.TrimSpace(e.codec.Decode(tokens)), nil
	}
	return strings.Join(kept, " "), nil
}
