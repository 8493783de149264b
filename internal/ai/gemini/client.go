// Package gemini implements the ranking client against the Google Gemini
// API. The Generator wraps the genai SDK and always requests a
// schema-constrained JSON response, so parsing is mechanical rather than
// best-effort text scraping. Validation of the parsed entries lives in
// ranker.go; nothing downstream ever sees unvalidated model output.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/LewisZett/tech-part-finder/internal/matching"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 30 * time.Second

	// rankingTemperature keeps the scoring relatively stable across calls.
	rankingTemperature = float32(0.3)
)

// ErrMissingAPIKey is returned by NewGenerator when no credential is
// configured. The sweep treats this as an unrecoverable configuration error
// and fails before processing any request.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// Generator wraps the Google GenAI client for ranking calls.
type Generator struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

// NewGenerator creates a Generator configured for the Gemini API backend.
// model and timeout fall back to defaults when zero.
func NewGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Generator{client: client, modelName: model, timeout: timeout}, nil
}

// rankingSchema is the structured-output contract for every ranking call:
// a bounded array of {id, score, reason} objects under a "matches" key.
var rankingSchema = &genai.Schema{
	Type:     genai.TypeObject,
	Required: []string{"matches"},
	Properties: map[string]*genai.Schema{
		"matches": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:     genai.TypeObject,
				Required: []string{"id", "score", "reason"},
				Properties: map[string]*genai.Schema{
					"id":     {Type: genai.TypeString, Description: "ID of the matched candidate"},
					"score":  {Type: genai.TypeNumber, Description: "Match quality score from 0-100"},
					"reason": {Type: genai.TypeString, Description: "Brief explanation of why this is a good match"},
				},
			},
		},
	},
}

// GenerateRanking sends the assembled ranking request to Gemini and returns
// the raw JSON payload. The call is bounded by the configured timeout so a
// single hung call cannot stall a sweep indefinitely.
func (g *Generator) GenerateRanking(ctx context.Context, req matching.RankingRequest) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if strings.TrimSpace(req.Task) == "" {
		return "", errors.New("ranking task must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	parts := []*genai.Part{{Text: req.Task}}
	if len(req.Images) > 0 {
		parts = append(parts, &genai.Part{Text: "\nImages of the enumerated items for visual comparison:"})
		for _, img := range req.Images {
			parts = append(parts, &genai.Part{Text: "\n" + img.Label})
			parts = append(parts, &genai.Part{
				FileData: &genai.FileData{FileURI: img.URL, MIMEType: "image/jpeg"},
			})
		}
	}

	temp := rankingTemperature
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   rankingSchema,
		Temperature:      &temp,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		},
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate ranking: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
