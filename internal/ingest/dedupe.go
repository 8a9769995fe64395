package ingest

import (
	"strings"

	"scholar-abstracts/internal/domain/entity"
)

// Dedupe keeps the first document for each title, comparing titles
// case-insensitively after trimming. Documents without a title are dropped.
// Order is preserved.
func Dedupe(docs []entity.Document) []entity.Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]entity.Document, 0, len(docs))

	for _, doc := range docs {
		if doc.Validate() != nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(doc.Title))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, doc)
	}
	return out
}
