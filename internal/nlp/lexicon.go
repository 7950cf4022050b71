package nlp

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed lexicon.txt
var lexiconData []byte

// SentimentScorer turns a token sequence into a continuous sentiment score
type SentimentScorer interface {
	Score(tokens []string) float64
}

// negators flip the polarity of the next scored word
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "dont": true, "don't": true,
	"doesnt": true, "doesn't": true, "didnt": true, "didn't": true,
	"isnt": true, "isn't": true, "wasnt": true, "wasn't": true, "cannot": true,
	"n't": true, "without": true,
}

// LexiconScorer scores text as the mean word valence over all tokens
// (the "comparative" score), using an embedded word list.
type LexiconScorer struct {
	words map[string]int
}

// NewLexiconScorer parses the embedded lexicon
func NewLexiconScorer() (*LexiconScorer, error) {
	words, err := parseLexicon(lexiconData)
	if err != nil {
		return nil, err
	}
	return &LexiconScorer{words: words}, nil
}

func parseLexicon(data []byte) (map[string]int, error) {
	words := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("lexicon line %d: want word<TAB>score", line)
		}
		score, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		words[strings.ToLower(strings.TrimSpace(fields[0]))] = score
	}
	return words, scanner.Err()
}

// Score implements SentimentScorer
func (s *LexiconScorer) Score(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	total := 0
	negate := false
	for _, tok := range tokens {
		word := strings.ToLower(tok)
		if negators[word] {
			negate = true
			continue
		}
		if v, ok := s.words[word]; ok {
			if negate {
				v = -v
			}
			total += v
			negate = false
		}
	}
	return float64(total) / float64(len(tokens))
}
