package nlp

import (
	"context"
	"log/slog"

	"github.com/jonreiter/govader"

	"github.com/IshaanNene/InsightBot/internal/types"
)

// Polarity thresholds. Scores exactly at a threshold are neutral.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Method names reported on a SentimentResult.
const (
	MethodPolarity = "polarity"
	MethodStars    = "stars"
	MethodNone     = "none"
)

// StarRater scores text on a 1..5 star scale.
type StarRater interface {
	RateStars(ctx context.Context, text string) (int, error)
	Name() string
}

// SentimentResult is the classifier output. Available is false when the
// underlying model could not be consulted and Label fell back to neutral.
type SentimentResult struct {
	Label     types.Sentiment
	Score     float64
	Method    string
	Available bool
}

// SentimentClassifier is the interface the pipeline depends on.
type SentimentClassifier interface {
	Classify(ctx context.Context, text, lang string) SentimentResult
}

// Classifier uses VADER polarity for English and a star rater for every
// other language, including "unknown". The two scales are not comparable.
type Classifier struct {
	vader    *govader.SentimentIntensityAnalyzer
	stars    StarRater
	maxChars int
	logger   *slog.Logger
}

// NewClassifier creates a Classifier. stars may be nil, in which case
// non-English text is reported neutral and unavailable.
func NewClassifier(stars StarRater, maxChars int, logger *slog.Logger) *Classifier {
	if maxChars <= 0 {
		maxChars = 512
	}
	return &Classifier{
		vader:    govader.NewSentimentIntensityAnalyzer(),
		stars:    stars,
		maxChars: maxChars,
		logger:   logger.With("component", "sentiment"),
	}
}

// Classify returns exactly one of the three sentiment labels.
func (c *Classifier) Classify(ctx context.Context, text, lang string) SentimentResult {
	if lang == "en" {
		return c.Polarity(text)
	}
	return c.Stars(ctx, text)
}

// Polarity classifies text by its VADER compound score.
func (c *Classifier) Polarity(text string) SentimentResult {
	score := c.vader.PolarityScores(text).Compound
	return SentimentResult{
		Label:     MapPolarity(score),
		Score:     score,
		Method:    MethodPolarity,
		Available: true,
	}
}

// Stars classifies the first maxChars runes of text with the star rater.
func (c *Classifier) Stars(ctx context.Context, text string) SentimentResult {
	if c.stars == nil {
		return SentimentResult{Label: types.SentimentNeutral, Method: MethodNone}
	}
	n, err := c.stars.RateStars(ctx, Truncate(text, c.maxChars))
	if err != nil {
		c.logger.Warn("star rating failed, defaulting to neutral", "rater", c.stars.Name(), "error", err)
		return SentimentResult{Label: types.SentimentNeutral, Method: MethodStars}
	}
	return SentimentResult{
		Label:     MapStars(n),
		Score:     float64(n),
		Method:    MethodStars,
		Available: true,
	}
}

// MapPolarity maps a polarity in [-1, 1] to a label.
func MapPolarity(p float64) types.Sentiment {
	switch {
	case p > PositiveThreshold:
		return types.SentimentPositive
	case p < NegativeThreshold:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

// MapStars maps a 1..5 star rating to a label.
func MapStars(stars int) types.Sentiment {
	switch {
	case stars <= 2:
		return types.SentimentNegative
	case stars == 3:
		return types.SentimentNeutral
	default:
		return types.SentimentPositive
	}
}
