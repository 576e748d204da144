package proposals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

const systemPrompt = `You are a flashcard author. Given source text, extract
between 3 and 20 question/answer flashcards. Respond with JSON only:
{"proposals":[{"front":"...","back":"..."}]}. Fronts must be at most 200
characters, backs at most 500. If the text contains too little substance to
produce useful flashcards, respond with {"proposals":[]}.`

// OpenRouterProvider calls the OpenRouter chat-completions API in structured
// output mode and validates the returned JSON against the expected proposal
// schema. Schema violations are provider errors, never successes.
type OpenRouterProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenRouterProvider constructs a provider bound to the given model with a
// request timeout. The key and model must be non-empty; this is a wiring-time
// configuration error, not a per-request one.
func NewOpenRouterProvider(apiKey, model string, timeout time.Duration) (*OpenRouterProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openrouter: api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("openrouter: model is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenRouterProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    openRouterURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Provider.
func (*OpenRouterProvider) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Type       string         `json:"type"`
	JSONSchema map[string]any `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []chatMessage    `json:"messages"`
	Temperature    float32          `json:"temperature"`
	ResponseFormat jsonSchemaFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// proposalsPayload is the schema the model must produce.
type proposalsPayload struct {
	Proposals []Proposal `json:"proposals"`
}

// Generate implements Provider. The request is bounded by both ctx and the
// client timeout; whichever fires first aborts the call.
func (p *OpenRouterProvider) Generate(ctx context.Context, text string) (res *Result, err error) {
	defer func() { observe(p.Name(), res, err) }()

	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		ResponseFormat: jsonSchemaFormat{
			Type: "json_schema",
			JSONSchema: map[string]any{
				"name":   "flashcard_proposals",
				"strict": true,
				"schema": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"proposals"},
					"properties": map[string]any{
						"proposals": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":                 "object",
								"additionalProperties": false,
								"required":             []string{"front", "back"},
								"properties": map[string]any{
									"front": map[string]any{"type": "string"},
									"back":  map[string]any{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("openrouter: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter: upstream status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("openrouter: invalid response body: %w", err)
	}
	if cr.Error != nil {
		return nil, fmt.Errorf("openrouter: upstream error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty choices")
	}

	parsed, err := parseProposals(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return &Result{
			LowQuality: true,
			Message:    "the source text did not yield any usable flashcards",
		}, nil
	}
	return &Result{Proposals: parsed}, nil
}

// parseProposals validates the model output against the expected schema.
// Blank fronts/backs and over-limit lengths are schema violations.
func parseProposals(content string) ([]Proposal, error) {
	var out proposalsPayload
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("openrouter: output does not match proposal schema: %w", err)
	}
	for i, p := range out.Proposals {
		front := strings.TrimSpace(p.Front)
		back := strings.TrimSpace(p.Back)
		if front == "" || back == "" {
			return nil, fmt.Errorf("openrouter: proposal %d has empty front or back", i)
		}
		if len([]rune(front)) > 200 || len([]rune(back)) > 500 {
			return nil, fmt.Errorf("openrouter: proposal %d exceeds length limits", i)
		}
		out.Proposals[i] = Proposal{Front: front, Back: back}
	}
	return out.Proposals, nil
}
