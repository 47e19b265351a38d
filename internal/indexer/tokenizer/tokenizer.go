// Package tokenizer turns raw article and query text into index terms. The
// English normalizer lower-cases, splits on non-alphanumeric boundaries,
// drops English stop words, and stems with the Snowball English stemmer.
// Tokenize implements the looser rule used by the vector model, which keeps
// every word of two or more characters unstemmed.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Normalizer maps text to the ordered sequence of terms used as index keys.
// Implementations must be deterministic and safe for concurrent use.
type Normalizer interface {
	Normalize(text string) []string
}

// English is the stateless normalizer used for both documents and queries.
type English struct{}

var _ Normalizer = English{}

// Normalize returns the stemmed, stop-word-free terms of text in order.
// Duplicates are kept.
func (English) Normalize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if IsStopWord(word) {
			continue
		}
		stemmed := english.Stem(word, true)
		if stemmed == "" {
			continue
		}
		terms = append(terms, stemmed)
	}
	return terms
}

// Tokenize lower-cases text and returns its word tokens of at least two
// runes. Word runes are letters, digits, combining marks and underscore.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// IsStopWord reports whether the lower-cased word is an English stop word.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// stopWords is the NLTK English list. Contractions only appear in their
// split form because apostrophes never survive tokenisation.
var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
		i me my myself we our ours ourselves you your yours yourself yourselves
		he him his himself she her hers herself it its itself they them their
		theirs themselves what which who whom this that these those am is are
		was were be been being have has had having do does did doing a an the
		and but if or because as until while of at by for with about against
		between into through during before after above below to from up down
		in out on off over under again further then once here there when where
		why how all any both each few more most other some such no nor not only
		own same so than too very s t can will just don should now d ll m o re
		ve y ain aren couldn didn doesn hadn hasn haven isn ma mightn mustn
		needn shan shouldn wasn weren won wouldn`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
