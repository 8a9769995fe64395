package summarizer

import (
	"fmt"

	"scholar-abstracts/internal/budget"
)

// buildPrompt asks for a plain summary whose length lies within b.
//
// Example output:
//
//	"Summarize the following text in 200 to 400 tokens. ...\n\n{text}"
func buildPrompt(text string, b budget.LengthBudget) string {
	return fmt.Sprintf("Summarize the following text in %d to %d tokens. "+
		"Write plain prose in the language of the text and reply with the summary only.\n\n%s",
		b.MinOutput, b.MaxOutput, text)
}
