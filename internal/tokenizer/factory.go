package tokenizer

import "fmt"

// New returns the codec for the given encoding name.
// EncodingWords selects the offline WordCodec; any other name is loaded
// through tiktoken.
func New(encoding string) (Codec, error) {
	switch encoding {
	case "":
		return nil, fmt.Errorf("%w: encoding name is empty", ErrCodecUnavailable)
	case EncodingWords:
		return NewWordCodec(), nil
	default:
		return NewTiktokenCodec(encoding)
	}
}
