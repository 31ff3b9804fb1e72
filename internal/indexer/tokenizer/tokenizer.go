// Package tokenizer turns raw document and query text into ordered term
// sequences. Text is NFKC-normalised, lower-cased and split on UAX#29 word
// boundaries; stop-word removal and Snowball English stemming are optional.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer converts text into an ordered sequence of normalised terms. It
// must be deterministic: the same text always yields the same terms.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// Options selects the optional stages of the pipeline.
type Options struct {
	RemoveStopwords bool
	Stem            bool
}

// BooleanOptions is the pipeline used for boolean and phrase indexes.
func BooleanOptions() Options {
	return Options{RemoveStopwords: true, Stem: true}
}

// RankedOptions is the pipeline used for the vector-space index; every
// query term is treated as signal, so stop words are kept.
func RankedOptions() Options {
	return Options{RemoveStopwords: false, Stem: true}
}

// Analyzer is the default Tokenizer.
type Analyzer struct {
	opts Options
}

func New(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

func (a *Analyzer) Options() Options {
	return a.opts
}

// Tokenize returns the terms of text in reading order. Segments that carry
// no letter or digit (whitespace, punctuation) are dropped.
func (a *Analyzer) Tokenize(text string) ([]string, error) {
	text = strings.ToLower(norm.NFKC.String(text))
	seg := words.FromString(text)
	terms := make([]string, 0, len(text)/5)
	for seg.Next() {
		word := seg.Value()
		if !isWord(word) {
			continue
		}
		if a.opts.RemoveStopwords {
			if _, stop := stopWords[word]; stop {
				continue
			}
		}
		if a.opts.Stem {
			stemmed, err := snowball.Stem(word, "english", true)
			if err != nil {
				return nil, fmt.Errorf("stemming %q: %w", word, err)
			}
			if stemmed != "" {
				word = stemmed
			}
		}
		terms = append(terms, word)
	}
	return terms, nil
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
