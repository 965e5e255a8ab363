// Package moderation screens inbound chat messages. The chat session treats
// the classifier as a black-box predicate: flagged content is rejected
// privately, never persisted, never broadcast.
package moderation

import "strings"

// Classifier is the predicate the chat session consults for every inbound
// message.
type Classifier interface {
	IsSpam(text string) bool
}

// defaultWords seeds the built-in classifier. Deployments with richer rules
// use a script classifier instead.
var defaultWords = []string{
	"spam",
	"viagra",
	"lottery",
	"jackpot",
	"free money",
}

// WordList flags any message containing one of its words, matched
// case-insensitively as a substring.
type WordList struct {
	words []string
}

// NewWordList creates a classifier over the given words. An empty list
// falls back to the built-in defaults.
func NewWordList(words ...string) *WordList {
	if len(words) == 0 {
		words = defaultWords
	}
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return &WordList{words: lowered}
}

// IsSpam implements Classifier.
func (w *WordList) IsSpam(text string) bool {
	lowered := strings.ToLower(text)
	for _, word := range w.words {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
