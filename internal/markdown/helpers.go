// Package markdown prepares text for Telegram's MarkdownV2 parse mode.
package markdown

import "strings"

// See https://core.telegram.org/bots/api#markdownv2-style.
const (
	textSpecialChars = `\_*[]()~` + "`" + `>#+-=|{}.!`
	codeSpecialChars = "\\`"
	urlSpecialChars  = `\)`
)

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	textLookup = lookupOf(textSpecialChars)
	codeLookup = lookupOf(codeSpecialChars)
	urlLookup  = lookupOf(urlSpecialChars)
)

// EscapeV2 escapes plain text.
func EscapeV2(input string) string {
	return escape(input, &textLookup)
}

// EscapeV2Code escapes the inside of pre and code entities.
func EscapeV2Code(input string) string {
	return escape(input, &codeLookup)
}

// EscapeV2URL escapes the inside of (...) in inline links.
func EscapeV2URL(input string) string {
	return escape(input, &urlLookup)
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0

	for i := 0; i < len(input); i++ {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := 0; i < len(input); i++ {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func lookupOf(chars string) [256]bool {
	var m [256]bool
	for _, c := range []byte(chars) {
		m[c] = true
	}
	return m
}
