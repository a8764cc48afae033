package integrations

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
)

// OpenAIClient talks to the OpenAI chat completions API. It serves both as
// vision oracle and as assistant.
type OpenAIClient struct {
	client         *openai.Client
	presenceModel  string
	diseaseModel   string
	assistantModel string
	timeout        time.Duration
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg config.OracleConfig) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not configured")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientCfg),
		presenceModel:  cfg.PresenceModel,
		diseaseModel:   cfg.DiseaseModel,
		assistantModel: cfg.AssistantModel,
		timeout:        cfg.Timeout,
	}, nil
}

// Model returns the disease analysis model
func (c *OpenAIClient) Model() string {
	return c.diseaseModel
}

// CheckPresence asks the model for a JSON presence verdict
func (c *OpenAIClient) CheckPresence(ctx context.Context, img diagnosis.Image) (Presence, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.presenceModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: presenceSystemPrompt},
			imageMessage(presenceUserPrompt, img),
		},
		MaxTokens:   presenceMaxTokens,
		Temperature: presenceTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Presence{}, fmt.Errorf("presence request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Presence{}, fmt.Errorf("presence response has no choices")
	}
	return parsePresence(resp.Choices[0].Message.Content)
}

// Describe asks the model for a prose disease analysis
func (c *OpenAIClient) Describe(ctx context.Context, img diagnosis.Image) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.diseaseModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: diseaseSystemPrompt},
			imageMessage(diseaseUserPrompt, img),
		},
		MaxTokens:   diseaseMaxTokens,
		Temperature: diseaseTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ask answers a plant care question
func (c *OpenAIClient) Ask(ctx context.Context, question, diseaseContext string) (string, error) {
	return timedAsk(ctx, c.timeout, func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.assistantModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: AssistantPrompt(diseaseContext)},
				{Role: openai.ChatMessageRoleUser, Content: question},
			},
			MaxTokens:   assistantMaxTokens,
			Temperature: assistantTemperature,
		})
		if err != nil {
			return "", fmt.Errorf("assistant request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func imageMessage(text string, img diagnosis.Image) openai.ChatCompletionMessage {
	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMIME(img), base64.StdEncoding.EncodeToString(img.Data))
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		},
	}
}
