package nlp

import (
	"fmt"

	"github.com/jdkato/prose/v2"
)

// Token is a word with its Penn Treebank part-of-speech tag
type Token struct {
	Text string
	Tag  string
}

// Tagger tokenizes text and tags parts of speech
type Tagger interface {
	Tag(text string) ([]Token, error)
}

// ProseTagger tags with the prose averaged-perceptron model
type ProseTagger struct{}

// NewProseTagger creates the tagger and forces the model to load, so the
// cost is paid at startup rather than on the first request.
func NewProseTagger() (*ProseTagger, error) {
	t := &ProseTagger{}
	if _, err := t.Tag("Warm up the tagger."); err != nil {
		return nil, err
	}
	return t, nil
}

// Tag implements Tagger
func (t *ProseTagger) Tag(text string) ([]Token, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}

	tokens := doc.Tokens()
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, Token{Text: tok.Text, Tag: tok.Tag})
	}
	return out, nil
}
