package triage

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxKeywords    = 10
	minKeywordRune = 4
)

// Tokenize lower-cases text, drops every rune that is not a letter, digit
// or whitespace, and splits on whitespace.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

// ExtractKeywords returns up to ten of the most frequent tokens in text,
// skipping short tokens and stop words. Equal counts keep the order in
// which the tokens first appeared.
func ExtractKeywords(text string, stopWords map[string]struct{}) []string {
	type entry struct {
		token string
		count int
	}
	index := map[string]int{}
	var entries []entry
	for _, tok := range Tokenize(text) {
		if utf8.RuneCountInString(tok) < minKeywordRune {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if i, ok := index[tok]; ok {
			entries[i].count++
			continue
		}
		index[tok] = len(entries)
		entries = append(entries, entry{token: tok, count: 1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})

	n := len(entries)
	if n > maxKeywords {
		n = maxKeywords
	}
	out := make([]string, 0, n)
	for _, e := range entries[:n] {
		out = append(out, e.token)
	}
	return out
}
