package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to the OpenAI chat completions API, or to any
// compatible endpoint such as a local Ollama server.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIProvider creates a provider for api.openai.com or a
// compatible base URL.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "openai",
	}
}

// NewOllamaProvider creates a provider for a local Ollama server, which
// speaks the OpenAI wire format under /v1.
func NewOllamaProvider(baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "ollama",
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

// Transcribe sends the prompt, with the image attached as a data URL
// when present, and returns the model's reply text.
func (p *OpenAIProvider) Transcribe(ctx context.Context, prompt, imageBase64 string) (string, error) {
	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if imageBase64 != "" {
		message.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    imageBase64,
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	} else {
		message.Content = prompt
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: []openai.ChatCompletionMessage{message},
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}
