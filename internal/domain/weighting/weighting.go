// Package weighting defines how much a single message counts toward a
// person's activity.
package weighting

import (
	"strings"
)

// Policy names accepted by New.
const (
	PolicyFlat      = "flat"
	PolicyWordCount = "word_count"
)

// minWordWeight is the weight of a message without any text tokens, such as a
// photo or a sticker.
const minWordWeight = 1

// Weigher computes the weight of a message from its text content.
type Weigher interface {
	Weight(text string) float64
}

// Flat weighs every message as 1.
type Flat struct{}

// Weight implements Weigher.
func (Flat) Weight(string) float64 { return 1 }

// WordCount weighs a message by its number of whitespace-delimited tokens.
// Messages with no tokens still count as one.
type WordCount struct{}

// Weight implements Weigher.
func (WordCount) Weight(text string) float64 {
	n := len(strings.Fields(text))
	if n < minWordWeight {
		n = minWordWeight
	}
	return float64(n)
}

// New returns the Weigher for wordCount: WordCount when true, Flat otherwise.
func New(wordCount bool) Weigher {
	if wordCount {
		return WordCount{}
	}
	return Flat{}
}

// Name reports the policy name of w, for logging.
func Name(w Weigher) string {
	switch w.(type) {
	case WordCount, *WordCount:
		return PolicyWordCount
	case Flat, *Flat:
		return PolicyFlat
	default:
		return "custom"
	}
}
