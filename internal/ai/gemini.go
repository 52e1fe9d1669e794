package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider talks to the Google Generative AI API.
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGeminiProvider creates a provider for the given Gemini model.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: model}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Transcribe sends the prompt and optional image to Gemini.
func (p *GeminiProvider) Transcribe(ctx context.Context, prompt, imageBase64 string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini client failed: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)

	parts := []genai.Part{genai.Text(prompt)}
	if imageBase64 != "" {
		format, data, err := decodeDataURL(imageBase64)
		if err != nil {
			return "", err
		}
		parts = append(parts, genai.ImageData(format, data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return collectText(resp), nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}

// decodeDataURL splits "data:image/png;base64,..." into format and raw
// bytes. Bare base64 without the data: prefix is treated as PNG.
func decodeDataURL(dataURL string) (string, []byte, error) {
	format := "png"
	payload := dataURL
	if strings.HasPrefix(dataURL, "data:") {
		comma := strings.Index(dataURL, ",")
		if comma < 0 {
			return "", nil, fmt.Errorf("malformed image data URL")
		}
		mime := dataURL[len("data:"):comma]
		payload = dataURL[comma+1:]
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = mime[:i]
		}
		if sub, ok := strings.CutPrefix(mime, "image/"); ok && sub != "" {
			format = sub
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image payload: %w", err)
	}
	return format, data, nil
}
