package nlp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/pemistahl/lingua-go"

	"github.com/IshaanNene/InsightBot/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"urls removed", "Read more at https://example.com/a?b=1 today", "Read more at today"},
		{"punctuation", "Hello, world! It's 2024.", "Hello world It s 2024"},
		{"whitespace collapsed", "  a\t\tb\n\nc  ", "a b c"},
		{"arabic kept", "مرحبا بالعالم!", "مرحبا بالعالم"},
		{"cyrillic kept", "Привет, мир.", "Привет мир"},
		{"accents replaced", "café résumé", "caf r sum"},
		{"only symbols", "!!! ??? ...", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"Breaking: markets fall 3% — see http://x.co/abc for details.",
		"http only text with nbsp",
		"hthttpx tp",
		"Новости: «рынок» упал; ١٢٣ سوق",
		"\t\n multiple   spaces\r\n",
	}
	for _, in := range inputs {
		once := CleanText(in)
		if twice := CleanText(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSummarize(t *testing.T) {
	body := "First sentence. Second one! Third? Fourth."
	if got := Summarize(body, 2); got != "First sentence. Second one!" {
		t.Errorf("Summarize = %q", got)
	}
	if got := Summarize("No terminator here", 2); got != "No terminator here" {
		t.Errorf("Summarize = %q", got)
	}
	if got := Summarize("", 2); got != "" {
		t.Errorf("Summarize empty = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("привет", 3); got != "при" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestMapPolarity(t *testing.T) {
	tests := []struct {
		p    float64
		want types.Sentiment
	}{
		{0.9, types.SentimentPositive},
		{0.0501, types.SentimentPositive},
		{0.05, types.SentimentNeutral},
		{0, types.SentimentNeutral},
		{-0.05, types.SentimentNeutral},
		{-0.0501, types.SentimentNegative},
		{-1, types.SentimentNegative},
	}
	for _, tt := range tests {
		if got := MapPolarity(tt.p); got != tt.want {
			t.Errorf("MapPolarity(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestMapStars(t *testing.T) {
	want := map[int]types.Sentiment{
		1: types.SentimentNegative,
		2: types.SentimentNegative,
		3: types.SentimentNeutral,
		4: types.SentimentPositive,
		5: types.SentimentPositive,
	}
	for stars, label := range want {
		if got := MapStars(stars); got != label {
			t.Errorf("MapStars(%d) = %q, want %q", stars, got, label)
		}
	}
}

type fakeRater struct {
	stars int
	err   error
	seen  string
}

func (f *fakeRater) RateStars(_ context.Context, text string) (int, error) {
	f.seen = text
	return f.stars, f.err
}

func (f *fakeRater) Name() string { return "fake" }

func TestClassifierEnglishUsesPolarity(t *testing.T) {
	rater := &fakeRater{stars: 1}
	c := NewClassifier(rater, 512, testLogger)

	res := c.Classify(context.Background(), "This is a wonderful, great and excellent day", "en")
	if res.Label != types.SentimentPositive || res.Method != MethodPolarity || !res.Available {
		t.Errorf("unexpected result: %+v", res)
	}
	res = c.Classify(context.Background(), "A terrible, horrible and awful disaster", "en")
	if res.Label != types.SentimentNegative {
		t.Errorf("expected negative, got %+v", res)
	}
	if rater.seen != "" {
		t.Error("star rater should not be called for English")
	}
}

func TestClassifierOtherLanguagesUseStars(t *testing.T) {
	rater := &fakeRater{stars: 4}
	c := NewClassifier(rater, 5, testLogger)

	res := c.Classify(context.Background(), "Привет мир", "ru")
	if res.Label != types.SentimentPositive || res.Method != MethodStars {
		t.Errorf("unexpected result: %+v", res)
	}
	if rater.seen != "Приве" {
		t.Errorf("text not truncated to 5 runes: %q", rater.seen)
	}

	// unknown language also goes through the star model
	rater.stars = 2
	if res := c.Classify(context.Background(), "???", LanguageUnknown); res.Label != types.SentimentNegative {
		t.Errorf("unknown language: %+v", res)
	}
}

func TestClassifierRaterFailure(t *testing.T) {
	c := NewClassifier(&fakeRater{err: errors.New("model down")}, 512, testLogger)
	res := c.Classify(context.Background(), "texte en français", "fr")
	if res.Label != types.SentimentNeutral || res.Available {
		t.Errorf("expected unavailable neutral, got %+v", res)
	}

	c = NewClassifier(nil, 512, testLogger)
	res = c.Classify(context.Background(), "texte", "fr")
	if res.Label != types.SentimentNeutral || res.Available || res.Method != MethodNone {
		t.Errorf("expected neutral without rater, got %+v", res)
	}
}

func TestLanguageDetector(t *testing.T) {
	d := NewLanguageDetectorFor(lingua.English, lingua.Russian, lingua.Arabic)

	res := d.Detect("The government announced a new economic policy on Tuesday morning")
	if res.Code != "en" || !res.Reliable {
		t.Errorf("expected reliable en, got %+v", res)
	}
	res = d.Detect("Правительство объявило о новой экономической политике во вторник")
	if res.Code != "ru" {
		t.Errorf("expected ru, got %+v", res)
	}
	res = d.Detect("أعلنت الحكومة عن سياسة اقتصادية جديدة يوم الثلاثاء")
	if res.Code != "ar" {
		t.Errorf("expected ar, got %+v", res)
	}
}

func TestLanguageDetectorUnknown(t *testing.T) {
	d := NewLanguageDetectorFor(lingua.English, lingua.Russian)
	for _, in := range []string{"", "  ", "ok"} {
		res := d.Detect(in)
		if res.Reliable || res.String() != LanguageUnknown {
			t.Errorf("Detect(%q) = %+v, want unknown", in, res)
		}
	}
}
