// Package lengthguard trims AI text against per-context word-count budgets.
// Over-budget text is truncated at a sentence boundary when one fits;
// under-budget text is flagged but never padded, since inventing words would
// fabricate content.
package lengthguard

import (
	"strings"

	"github.com/sundale/projectcoach-backend/internal/config"
)

// Result reports the enforcement outcome for one piece of text.
type Result struct {
	Text        string `json:"text"`
	WordCount   int    `json:"word_count"`
	WasModified bool   `json:"was_modified"`
	UnderMin    bool   `json:"under_min"` // flagged for observability, not corrected
}

// Enforce applies the (min,max) word budget to text. The returned text never
// exceeds the max word count.
func Enforce(text string, budget config.LengthBudget) Result {
	words := strings.Fields(text)
	count := len(words)

	if count <= budget.MaxWords {
		return Result{
			Text:      text,
			WordCount: count,
			UnderMin:  count < budget.MinWords,
		}
	}

	if truncated, ok := truncateAtSentence(text, budget.MaxWords); ok {
		return Result{
			Text:        truncated,
			WordCount:   len(strings.Fields(truncated)),
			WasModified: true,
		}
	}

	// No complete sentence fits; hard-truncate at the word limit.
	hard := strings.Join(words[:budget.MaxWords], " ") + "…"
	return Result{
		Text:        hard,
		WordCount:   budget.MaxWords,
		WasModified: true,
	}
}

// truncateAtSentence returns the longest prefix of text that ends at a
// sentence boundary and stays within maxWords. ok is false when no complete
// sentence fits.
func truncateAtSentence(text string, maxWords int) (string, bool) {
	var best string
	found := false

	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		candidate := strings.TrimSpace(text[:i+1])
		if len(strings.Fields(candidate)) > maxWords {
			break
		}
		best = candidate
		found = true
	}

	return best, found
}
