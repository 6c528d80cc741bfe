// Package translate exposes the translation endpoint: a pass-through to a
// third-party LLM with a cache in front. No language logic lives here.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

var (
	ErrMissingAPIKey   = errors.New("translator API key is required")
	ErrEmptyText       = errors.New("text to translate is required")
	ErrUpstreamFailure = errors.New("translation request failed")
)

// Config holds the translator configuration.
type Config struct {
	APIKey   string        `env:"GEMINI_API_KEY,required"`
	Model    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	CacheTTL time.Duration `env:"TRANSLATE_CACHE_TTL" envDefault:"720h"`
}

// Translation is a translator result. Cached reports whether it was
// served from the cache instead of the model.
type Translation struct {
	Text   string
	Cached bool
}

// Translator produces a translation of text between two languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (Translation, error)
}

// GeminiTranslator calls the Gemini API with a fixed translation prompt.
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

// NewGeminiTranslator creates the LLM-backed translator.
func NewGeminiTranslator(ctx context.Context, cfg Config) (*GeminiTranslator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Join(ErrUpstreamFailure, err)
	}

	return &GeminiTranslator{client: client, model: cfg.Model}, nil
}

func (t *GeminiTranslator) Translate(ctx context.Context, text, source, target string) (Translation, error) {
	if strings.TrimSpace(text) == "" {
		return Translation{}, ErrEmptyText
	}

	prompt := fmt.Sprintf(
		"Translate the following %s text to %s. Reply with the translation only, no explanations.\n\n%s",
		source, target, text,
	)

	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt), nil)
	if err != nil {
		return Translation{}, errors.Join(ErrUpstreamFailure, err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return Translation{}, ErrUpstreamFailure
	}
	return Translation{Text: out}, nil
}
