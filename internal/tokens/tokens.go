// Package tokens estimates token counts for budget accounting.
//
// Counts are approximations, not provider token counts: the budget layer
// has no tokenizer, so it uses the rule of thumb that one token covers
// about four characters of text. Ledger totals and the per-request ceiling
// are therefore estimates and must be treated as such.
package tokens

// CharsPerToken is the assumed number of characters per token.
const CharsPerToken = 4

// Estimate returns the approximate token count of a text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// Chars converts a token budget back into a character allowance.
func Chars(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return tokens * CharsPerToken
}
