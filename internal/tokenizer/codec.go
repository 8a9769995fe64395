// Package tokenizer converts text to token ids and back.
// Token counts produced here are the unit in which every length budget of the
// abstract pipeline is expressed.
package tokenizer

import "errors"

// ErrCodecUnavailable indicates that a codec could not be constructed.
// This is a fatal configuration error: the pipeline cannot run without a codec.
var ErrCodecUnavailable = errors.New("tokenizer codec unavailable")

// Tokens is an ordered sequence of token ids.
type Tokens []int

// Codec encodes text into tokens and decodes tokens back into text.
//
// Implementations must be deterministic and side-effect free.
// Decode(Encode(x)) may normalize whitespace but must preserve content,
// and decoding never reintroduces special or control tokens.
type Codec interface {
	// Encode converts text into an ordered token sequence.
	Encode(text string) Tokens

	// Decode converts a token sequence back into text.
	Decode(tokens Tokens) string

	// Count returns len(Encode(text)).
	Count(text string) int
}
