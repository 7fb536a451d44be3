// Package gemini creates GenAI clients and cleans up model JSON output.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/dompet/internal/config"
	"google.golang.org/genai"
)

// ContentGenerator is the part of the GenAI client used here. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ ContentGenerator = (*genai.Models)(nil)

// NewClient creates a GenAI client. A configured project selects Vertex AI;
// otherwise the Gemini API is used with the API key (or GEMINI_API_KEY from the environment).
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: cfg.APIVersion},
		APIKey:      cfg.APIKey,
	}
	if cfg.Project != "" {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.APIKey = ""
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}
	return client, nil
}

// Usage is the token accounting of one model call.
type Usage struct {
	ModelVersion     string
	PromptTokens     int32
	CandidatesTokens int32
}

// UsageOf extracts token usage from a response. It is zero when the response carries none.
func UsageOf(resp *genai.GenerateContentResponse) Usage {
	if resp == nil {
		return Usage{}
	}
	u := Usage{ModelVersion: resp.ModelVersion}
	if resp.UsageMetadata != nil {
		u.PromptTokens = resp.UsageMetadata.PromptTokenCount
		u.CandidatesTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	return u
}

// CleanJSON strips Markdown fences and text around the outermost JSON object in raw model output.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
