package telegram

import "regexp"

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)

// StripTags removes HTML-style tags so a reply the API rejected for bad
// markup can be resent as plain text.
func StripTags(text string) string {
	return tagPattern.ReplaceAllString(text, "")
}

// Truncate shortens a message to fit the Bot API limit, marking the cut.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "\n\n[MESSAGE TRUNCATED]"
}
