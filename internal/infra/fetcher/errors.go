package fetcher

import "errors"

// Sentinel errors returned by the fetcher and the HTML extractor.
// Callers treat every one of them as "no full text": the record is kept and
// the driver reports it as having no content.
var (
	// ErrInvalidURL indicates an unparsable URL or a scheme other than http/https.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates that the host resolves to a private, loopback or
	// link-local address (SSRF prevention).
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	// ErrTooManyRedirects indicates that the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates that the response exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates that the request exceeded its timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrNoReadableContent indicates that no text could be extracted from a page.
	ErrNoReadableContent = errors.New("no readable content found")
)
