package chatbot

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query is a user message prepared for rule matching.
type Query struct {
	Raw string
	// Text is lower-cased, accent-free, with punctuation replaced by spaces
	// and padded with one space on each side so " hay " matches whole words.
	Text string
}

// NewQuery normalizes a message.
func NewQuery(message string) Query {
	return Query{Raw: strings.TrimSpace(message), Text: " " + normalize(message) + " "}
}

// normalize lower-cases s, strips diacritics and collapses punctuation.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// ContainsAny reports whether the normalized text contains any of the
// keywords. Keywords are normalized the same way; surround a keyword with
// spaces to match it as a whole word.
func (q Query) ContainsAny(keywords ...string) bool {
	for _, k := range keywords {
		key := normalize(k)
		if strings.HasPrefix(k, " ") {
			key = " " + key
		}
		if strings.HasSuffix(k, " ") {
			key += " "
		}
		if key != "" && strings.Contains(q.Text, key) {
			return true
		}
	}
	return false
}

// Is reports whether the whole message equals one of the words.
func (q Query) Is(words ...string) bool {
	text := strings.TrimSpace(q.Text)
	for _, w := range words {
		if text == normalize(w) && text != "" {
			return true
		}
		if q.Raw == w {
			return true
		}
	}
	return false
}
