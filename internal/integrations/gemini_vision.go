package integrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient talks to the Gemini API through the genai SDK
type GeminiClient struct {
	client         *genai.Client
	presenceModel  string
	diseaseModel   string
	assistantModel string
	timeout        time.Duration
}

// NewGeminiClient creates a new Gemini client. OpenAI model names in the
// configuration fall back to the default Gemini model.
func NewGeminiClient(ctx context.Context, cfg config.OracleConfig) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("Gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		presenceModel:  geminiModel(cfg.PresenceModel),
		diseaseModel:   geminiModel(cfg.DiseaseModel),
		assistantModel: geminiModel(cfg.AssistantModel),
		timeout:        cfg.Timeout,
	}, nil
}

func geminiModel(name string) string {
	if name == "" || strings.HasPrefix(name, "gpt-") {
		return defaultGeminiModel
	}
	return name
}

// Model returns the disease analysis model
func (c *GeminiClient) Model() string {
	return c.diseaseModel
}

// CheckPresence asks the model for a JSON presence verdict
func (c *GeminiClient) CheckPresence(ctx context.Context, img diagnosis.Image) (Presence, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.presenceModel, imageContents(presenceUserPrompt, img), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(presenceSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](presenceTemperature),
		MaxOutputTokens:   presenceMaxTokens,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return Presence{}, fmt.Errorf("presence request failed: %w", err)
	}
	return parsePresence(resp.Text())
}

// Describe asks the model for a prose disease analysis
func (c *GeminiClient) Describe(ctx context.Context, img diagnosis.Image) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.diseaseModel, imageContents(diseaseUserPrompt, img), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(diseaseSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](diseaseTemperature),
		MaxOutputTokens:   diseaseMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	return resp.Text(), nil
}

// Ask answers a plant care question
func (c *GeminiClient) Ask(ctx context.Context, question, diseaseContext string) (string, error) {
	return timedAsk(ctx, c.timeout, func(ctx context.Context) (string, error) {
		contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}
		resp, err := c.client.Models.GenerateContent(ctx, c.assistantModel, contents, &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(AssistantPrompt(diseaseContext), genai.RoleUser),
			Temperature:       genai.Ptr[float32](assistantTemperature),
			MaxOutputTokens:   assistantMaxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("assistant request failed: %w", err)
		}
		return resp.Text(), nil
	})
}

func imageContents(text string, img diagnosis.Image) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromText(text),
		genai.NewPartFromBytes(img.Data, imageMIME(img)),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
