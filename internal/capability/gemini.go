package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ModelParams are the generation settings for one agent component.
type ModelParams struct {
	ModelID         string
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// GeminiAnalyzer implements the AI-backed capabilities (name
// extraction, relevance scoring, fact extraction, draft prettify)
// against the Gemini generateContent API.
type GeminiAnalyzer struct {
	apiKey  string
	router  ModelParams // name extraction
	intake  ModelParams // relevance + fact extraction
	drafts  ModelParams // prettify
	prompts map[string]string
	client  *http.Client
}

// NewGeminiAnalyzer creates an analyzer with per-component model params.
func NewGeminiAnalyzer(apiKey string, router, intake, drafts ModelParams) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		apiKey: apiKey,
		router: router,
		intake: intake,
		drafts: drafts,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// SetPrompts overrides the built-in instruction text per capability.
// Recognized keys: "name", "relevance", "facts", "prettify". Missing
// or empty entries keep the defaults.
func (g *GeminiAnalyzer) SetPrompts(prompts map[string]string) {
	g.prompts = prompts
}

func (g *GeminiAnalyzer) instruction(key, fallback string) string {
	if p := g.prompts[key]; p != "" {
		return p
	}
	return fallback
}

var (
	_ NameExtractor   = (*GeminiAnalyzer)(nil)
	_ RelevanceScorer = (*GeminiAnalyzer)(nil)
	_ FactExtractor   = (*GeminiAnalyzer)(nil)
	_ Prettifier      = (*GeminiAnalyzer)(nil)
)

// ExtractName asks the model whether the message introduces a person.
func (g *GeminiAnalyzer) ExtractName(ctx context.Context, req NameRequest) (NameResponse, error) {
	prompt := fmt.Sprintf(`%s
Message:
%s`, g.instruction("name", `You extract a person's name from a chat message.
Respond JSON only: {"detected": bool, "name": "...", "confidence": float 0-1}.`), req.UserInput)

	text, err := g.generate(ctx, g.router, prompt)
	if err != nil {
		return NameResponse{Status: StatusError, ErrorDetail: "LLM_SERVICE_ERROR: " + err.Error()}, nil
	}
	var parsed struct {
		Detected   bool    `json:"detected"`
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	}
	if !decodeLenientJSON(text, &parsed) {
		// Fall back to the plain heuristic when the model answer is
		// not parseable, rather than failing the auth turn.
		if name := HeuristicName(req.UserInput); name != "" {
			return NameResponse{Status: StatusSuccess, Detected: true, Name: name, Confidence: 0.5}, nil
		}
		return NameResponse{Status: StatusSuccess, Detected: false}, nil
	}
	return NameResponse{
		Status:     StatusSuccess,
		Detected:   parsed.Detected && parsed.Name != "",
		Name:       parsed.Name,
		Confidence: parsed.Confidence,
	}, nil
}

// ScoreRelevance rates content against a domain on a 0–1 scale.
func (g *GeminiAnalyzer) ScoreRelevance(ctx context.Context, req RelevanceRequest) (RelevanceResponse, error) {
	prompt := fmt.Sprintf(`%s
Domain name: %s
Domain description: %s
Domain keywords: %s
Content:
%s`, g.instruction("relevance", `You are a relevance scorer. Given content and a domain (name, description, keywords), return JSON: {"score": float 0-1, "reasoning": "brief"}.`),
		req.DomainName, req.DomainDescription, strings.Join(req.DomainKeywords, ", "), req.ContentText)

	text, err := g.generate(ctx, g.intake, prompt)
	if err != nil {
		return RelevanceResponse{Status: StatusError, ErrorDetail: "LLM_SERVICE_ERROR: " + err.Error()}, nil
	}
	var parsed struct {
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	}
	if !decodeLenientJSON(text, &parsed) {
		return RelevanceResponse{Status: StatusSuccess, RelevanceScore: 0, Reasoning: text}, nil
	}
	return RelevanceResponse{Status: StatusSuccess, RelevanceScore: parsed.Score, Reasoning: parsed.Reasoning}, nil
}

// ExtractFacts pulls atomic facts relevant to the domain.
func (g *GeminiAnalyzer) ExtractFacts(ctx context.Context, req ExtractFactsRequest) (ExtractFactsResponse, error) {
	prompt := fmt.Sprintf(`%s
Domain: %s
Description: %s
Keywords: %s
Relevance justification: %s
Content:
%s`, g.instruction("facts", `Extract atomic, verifiable facts relevant to the domain. Respond JSON: {"facts":[{"fact_id": "slug", "content": "fact", "justification": "why"}]}.`),
		req.DomainName, req.DomainDescription, strings.Join(req.DomainKeywords, ", "), req.RelevanceJustification, req.ContentText)

	text, err := g.generate(ctx, g.intake, prompt)
	if err != nil {
		return ExtractFactsResponse{Status: StatusError, ErrorDetail: "LLM_GENERATION_FAILED: " + err.Error()}, nil
	}
	var parsed struct {
		Facts []ExtractedFact `json:"facts"`
	}
	if !decodeLenientJSON(text, &parsed) {
		return ExtractFactsResponse{Status: StatusError, ErrorDetail: "LLM_GENERATION_FAILED: unparseable model output"}, nil
	}
	return ExtractFactsResponse{Status: StatusSuccess, Facts: parsed.Facts, ExtractedCount: len(parsed.Facts)}, nil
}

// PrettifyDomain structures a raw interest description into a draft.
func (g *GeminiAnalyzer) PrettifyDomain(ctx context.Context, req PrettifyRequest) (PrettifyResponse, error) {
	prompt := fmt.Sprintf(`%s
Raw input:
%s`, g.instruction("prettify", `Given a user's raw description of an interest area, produce JSON:
{"name": "...", "description": "...", "keywords": ["..."]}`), req.RawInputText)

	text, err := g.generate(ctx, g.drafts, prompt)
	if err != nil {
		return PrettifyResponse{Status: StatusError, ErrorDetails: "LLM_SERVICE_UNAVAILABLE: " + err.Error()}, nil
	}
	var parsed PrettifyData
	if !decodeLenientJSON(text, &parsed) {
		parsed = PrettifyData{Name: "Untitled Domain", Description: req.RawInputText}
	}
	if parsed.Name == "" {
		parsed.Name = "Untitled Domain"
	}
	if parsed.Description == "" {
		parsed.Description = req.RawInputText
	}
	return PrettifyResponse{Status: StatusPrettifyOK, Data: &parsed}, nil
}

// generate sends one generateContent request and returns the text of
// the first candidate.
func (g *GeminiAnalyzer) generate(ctx context.Context, params ModelParams, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     params.Temperature,
			"topP":            params.TopP,
			"topK":            params.TopK,
			"maxOutputTokens": params.MaxOutputTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		params.ModelID, url.QueryEscape(g.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// decodeLenientJSON unmarshals model output into v, tolerating prose
// around the JSON object by retrying on the outermost brace span.
func decodeLenientJSON(text string, v any) bool {
	if json.Unmarshal([]byte(text), v) == nil {
		return true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(text[start:end+1]), v) == nil
}
