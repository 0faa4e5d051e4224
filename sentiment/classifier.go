package sentiment

import (
	"strings"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// Scorer returns a polarity for cleaned text. Only the sign is used.
type Scorer interface {
	Polarity(text string) float64
}

// LabelFor maps a polarity score to its label.
func LabelFor(score float64) models.Sentiment {
	switch {
	case score > 0:
		return models.SentimentPositive
	case score < 0:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Classifier cleans post text and labels it with a Scorer.
type Classifier struct {
	scorer Scorer
}

// NewClassifier wraps scorer; a nil scorer selects the built-in lexicon.
func NewClassifier(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewLexiconScorer(nil)
	}
	return &Classifier{scorer: scorer}
}

// Classify labels raw post text.
func (c *Classifier) Classify(text string) models.Sentiment {
	return LabelFor(c.scorer.Polarity(CleanText(text)))
}

var defaultLexicon = map[string]float64{
	"good":          0.7,
	"great":         0.8,
	"love":          0.5,
	"loved":         0.7,
	"loves":         0.5,
	"awesome":       1.0,
	"amazing":       0.6,
	"excellent":     1.0,
	"best":          1.0,
	"fun":           0.3,
	"happy":         0.8,
	"nice":          0.6,
	"beautiful":     0.85,
	"cool":          0.35,
	"favourite":     0.5,
	"favorite":      0.5,
	"perfect":       1.0,
	"brilliant":     0.9,
	"fantastic":     0.4,
	"wonderful":     1.0,
	"enjoy":         0.4,
	"enjoyed":       0.4,
	"recommend":     0.3,
	"cute":          0.5,
	"incredible":    0.9,
	"impressive":    1.0,
	"bad":           -0.7,
	"terrible":      -1.0,
	"awful":         -1.0,
	"worst":         -1.0,
	"hate":          -0.8,
	"hated":         -0.9,
	"boring":        -1.0,
	"poor":          -0.4,
	"sad":           -0.5,
	"broken":        -0.4,
	"disappointed":  -0.75,
	"disappointing": -0.6,
	"expensive":     -0.5,
	"overpriced":    -0.6,
	"missing":       -0.2,
	"cheap":         -0.3,
	"angry":         -0.5,
	"annoying":      -0.8,
	"useless":       -0.5,
	"waste":         -0.2,
	"wrong":         -0.5,
	"fake":          -0.5,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true,
	"dont": true, "doesnt": true, "didnt": true, "isnt": true,
	"wasnt": true, "cant": true, "wont": true, "arent": true,
}

var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.3,
	"extremely":  1.5,
	"super":      1.3,
	"incredibly": 1.5,
}

// negationWindow is how many following tokens a negation applies to.
const negationWindow = 3

// LexiconScorer averages word polarities from a fixed lexicon. Negations flip
// the next few sentiment words and intensifiers scale the next one.
type LexiconScorer struct {
	words map[string]float64
}

// NewLexiconScorer builds a scorer from the default lexicon plus extra, which
// overrides entries with the same word.
func NewLexiconScorer(extra map[string]float64) *LexiconScorer {
	words := make(map[string]float64, len(defaultLexicon)+len(extra))
	for w, v := range defaultLexicon {
		words[w] = v
	}
	for w, v := range extra {
		words[strings.ToLower(w)] = v
	}
	return &LexiconScorer{words: words}
}

// Polarity returns the mean polarity of lexicon words in text, in [-1.5, 1.5].
// Text without lexicon words scores 0.
func (s *LexiconScorer) Polarity(text string) float64 {
	var (
		sum      float64
		matched  int
		negated  int
		multiply = 1.0
	)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if negations[token] {
			negated = negationWindow
			continue
		}
		if m, ok := intensifiers[token]; ok {
			multiply = m
			continue
		}

		score, ok := s.words[token]
		if ok {
			score *= multiply
			if negated > 0 {
				score = -score * 0.5
			}
			sum += score
			matched++
		}
		multiply = 1.0
		if negated > 0 {
			negated--
		}
	}
	if matched == 0 {
		return 0
	}
	return sum / float64(matched)
}
