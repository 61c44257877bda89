package manager

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits line on whitespace. Quoting is left to parsers such as the
// quoted string parser, which join the tokens they consume.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// TokenizeForCompletion is like Tokenize but keeps a trailing empty token when
// line is empty or ends in whitespace, so completion targets the next token.
func TokenizeForCompletion(line string) []string {
	tokens := strings.Fields(line)
	last, _ := utf8.DecodeLastRuneInString(line)
	if line == "" || unicode.IsSpace(last) {
		tokens = append(tokens, "")
	}
	return tokens
}
