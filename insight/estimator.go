package insight

import "strings"

// tokensPerWord is the whitespace-word to token conversion factor. English
// prose runs roughly 1.3 tokens per word across the tokenizers the target
// models use.
const tokensPerWord = 1.3

// EstimateTokens approximates the token cost of text from its whitespace
// word count. It is not a tokenizer: budget decisions downstream inherit its
// error, which is why chunk budgets leave headroom. Deterministic, and
// monotonic in the number of words.
func EstimateTokens(text string) float64 {
	if text == "" {
		return 0
	}
	return float64(len(strings.Fields(text))) * tokensPerWord
}
