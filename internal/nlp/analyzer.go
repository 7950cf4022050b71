package nlp

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/models"
)

// Sentiment labels
const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
	LabelNeutral  = "Neutral"
	LabelNone     = "N/A"
)

const labelThreshold = 0.3

// Analysis is the result of analyzing one block of text
type Analysis struct {
	SentimentLabel string              `json:"sentimentLabel"`
	Score          float64             `json:"score"`
	KeyThemes      []string            `json:"keyThemes"`
	Topics         []models.TopicCount `json:"topics"`
	Emotions       map[string]float64  `json:"emotions"`
}

// Analyzer extracts sentiment, key themes and topics from free text.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	tagger       Tagger
	scorer       SentimentScorer
	keywordLimit int
	topicLimit   int
}

// NewAnalyzer builds an analyzer over the given tagger and scorer
func NewAnalyzer(tagger Tagger, scorer SentimentScorer, cfg config.NLPConfig) *Analyzer {
	a := &Analyzer{
		tagger:       tagger,
		scorer:       scorer,
		keywordLimit: cfg.KeywordLimit,
		topicLimit:   cfg.TopicLimit,
	}
	if a.keywordLimit <= 0 {
		a.keywordLimit = 5
	}
	if a.topicLimit <= 0 {
		a.topicLimit = 12
	}
	return a
}

// NewDefaultAnalyzer wires the prose tagger and the embedded lexicon
func NewDefaultAnalyzer(cfg config.NLPConfig) (*Analyzer, error) {
	tagger, err := NewProseTagger()
	if err != nil {
		return nil, err
	}
	scorer, err := NewLexiconScorer()
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(tagger, scorer, cfg), nil
}

// Empty returns the result for text with nothing to analyze
func Empty() *Analysis {
	return &Analysis{
		SentimentLabel: LabelNone,
		KeyThemes:      []string{},
		Topics:         []models.TopicCount{},
		Emotions:       map[string]float64{},
	}
}

// Analyze scores and extracts themes from text. topK limits the key themes;
// zero or less uses the configured keyword limit.
func (a *Analyzer) Analyze(text string, topK int) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Empty(), nil
	}
	if topK <= 0 {
		topK = a.keywordLimit
	}

	tagged, err := a.tagger.Tag(text)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(tagged))
	for _, tok := range tagged {
		if isWord(tok.Text) {
			words = append(words, strings.ToLower(tok.Text))
		}
	}

	score := a.scorer.Score(words)
	return &Analysis{
		SentimentLabel: Label(score),
		Score:          finite(score),
		KeyThemes:      Keywords(tagged, topK),
		Topics:         Topics(tagged, a.topicLimit),
		Emotions:       a.emotions(words),
	}, nil
}

// Label discretizes a sentiment score. Bounds are exclusive.
func Label(score float64) string {
	switch {
	case math.IsNaN(score) || math.IsInf(score, 0):
		return LabelNeutral
	case score > labelThreshold:
		return LabelPositive
	case score < -labelThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Keywords returns the topK most frequent noun, verb and adjective terms
func Keywords(tokens []Token, topK int) []string {
	ranked := rank(tokens, isKeywordTag, topK)
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Topic
	}
	return out
}

// Topics returns the topK most frequent nouns with their counts
func Topics(tokens []Token, topK int) []models.TopicCount {
	return rank(tokens, isNounTag, topK)
}

func rank(tokens []Token, keep func(tag string) bool, topK int) []models.TopicCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range tokens {
		if !keep(tok.Tag) {
			continue
		}
		term := strings.ToLower(tok.Text)
		if !isCandidate(term) {
			continue
		}
		if counts[term] == 0 {
			order = append(order, term)
		}
		counts[term]++
	}

	ranked := make([]models.TopicCount, len(order))
	for i, term := range order {
		ranked[i] = models.TopicCount{Topic: term, Frequency: counts[term]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Frequency > ranked[j].Frequency
	})
	if topK >= 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// emotions reports the share of positive, negative and neutral words
func (a *Analyzer) emotions(words []string) map[string]float64 {
	out := map[string]float64{"positive": 0, "negative": 0, "neutral": 0}
	if len(words) == 0 {
		return out
	}
	for _, w := range words {
		s := a.scorer.Score([]string{w})
		switch {
		case s > 0:
			out["positive"]++
		case s < 0:
			out["negative"]++
		default:
			out["neutral"]++
		}
	}
	total := float64(len(words))
	for k, v := range out {
		out[k] = math.Round(v/total*1000) / 1000
	}
	return out
}

func isKeywordTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "VB") || strings.HasPrefix(tag, "JJ")
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isCandidate(term string) bool {
	if len(term) <= 2 || stopWords[term] {
		return false
	}
	for _, r := range term {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
