package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/InsightBot/internal/config"
)

// Provider specifies which model backend rates text.
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderOllama      Provider = "ollama"
	ProviderNone        Provider = "none"
)

// RaterConfig configures a star rater.
type RaterConfig struct {
	Provider Provider
	Endpoint string // full inference URL for huggingface, base URL for ollama
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// ConfigFrom builds a RaterConfig from the sentiment section.
func ConfigFrom(cfg config.SentimentConfig) RaterConfig {
	return RaterConfig{
		Provider: Provider(cfg.Provider),
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
	}
}

// StarRater is satisfied by every client in this package.
type StarRater interface {
	RateStars(ctx context.Context, text string) (int, error)
	Name() string
}

// NewStarRater returns the rater for cfg.Provider, or nil for "none".
func NewStarRater(cfg RaterConfig, logger *slog.Logger) (StarRater, error) {
	switch cfg.Provider {
	case ProviderHuggingFace:
		return NewHuggingFaceRater(cfg, logger), nil
	case ProviderOllama:
		return NewOllamaRater(cfg, logger), nil
	case ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported sentiment provider: %s", cfg.Provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// HuggingFaceRater calls a text-classification inference endpoint serving a
// 1..5 star model such as nlptown/bert-base-multilingual-uncased-sentiment.
type HuggingFaceRater struct {
	cfg    RaterConfig
	client *http.Client
	logger *slog.Logger
}

// NewHuggingFaceRater creates a HuggingFace inference client.
func NewHuggingFaceRater(cfg RaterConfig, logger *slog.Logger) *HuggingFaceRater {
	return &HuggingFaceRater{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		logger: logger.With("component", "hf_rater"),
	}
}

func (r *HuggingFaceRater) Name() string { return "huggingface:" + r.cfg.Model }

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RateStars returns the highest-scoring star label for text.
func (r *HuggingFaceRater) RateStars(ctx context.Context, text string) (int, error) {
	payload := map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": true},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read huggingface response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("huggingface status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	scores, err := decodeLabelScores(respBody)
	if err != nil {
		return 0, err
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	r.logger.Debug("rated", "label", best.Label, "score", best.Score)
	return ParseStars(best.Label)
}

// decodeLabelScores accepts both the nested [[...]] shape returned for a
// single input and a flat [...] list.
func decodeLabelScores(body []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	return nil, fmt.Errorf("unexpected huggingface response: %s", truncate(string(body), 200))
}

// OllamaRater asks a local Ollama model for a 1..5 rating.
type OllamaRater struct {
	cfg    RaterConfig
	client *http.Client
	logger *slog.Logger
}

// NewOllamaRater creates an Ollama client.
func NewOllamaRater(cfg RaterConfig, logger *slog.Logger) *OllamaRater {
	return &OllamaRater{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		logger: logger.With("component", "ollama_rater"),
	}
}

func (r *OllamaRater) Name() string { return "ollama:" + r.cfg.Model }

const ollamaPrompt = `Rate the overall sentiment of the following news text on a scale of 1 to 5 stars, where 1 is very negative, 3 is neutral and 5 is very positive. The text may be in any language. Reply with a single digit only.

Text: %s`

// RateStars prompts the model and parses the first digit of its reply.
func (r *OllamaRater) RateStars(ctx context.Context, text string) (int, error) {
	payload := map[string]any{
		"model":  r.cfg.Model,
		"prompt": fmt.Sprintf(ollamaPrompt, text),
		"stream": false,
		"options": map[string]any{
			"temperature": 0,
			"num_predict": 4,
		},
	}
	body, _ := json.Marshal(payload)

	endpoint := strings.TrimRight(r.cfg.Endpoint, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ollama status %d", resp.StatusCode)
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode ollama response: %w", err)
	}
	return ParseStars(result.Response)
}

var starsPattern = regexp.MustCompile(`[1-5]`)

// ParseStars extracts the star count from labels like "4 stars" or "1 star".
func ParseStars(label string) (int, error) {
	label = strings.TrimSpace(label)
	if fields := strings.Fields(label); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			if n < 1 || n > 5 {
				return 0, fmt.Errorf("star rating %d out of range", n)
			}
			return n, nil
		}
	}
	m := starsPattern.FindString(label)
	if m == "" {
		return 0, fmt.Errorf("no star rating in %q", truncate(label, 50))
	}
	n, _ := strconv.Atoi(m)
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
