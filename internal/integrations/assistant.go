package integrations

import (
	"context"
	"strings"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/detector"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/metrics"
)

// Assistant answers free-form plant care questions
type Assistant interface {
	Ask(ctx context.Context, question, diseaseContext string) (string, error)
}

// NoAnswer is returned when the model replies with no text
const NoAnswer = "I'm sorry, I couldn't generate a response."

const (
	assistantTemperature = 0.7
	assistantMaxTokens   = 800
)

// AssistantPrompt builds the system prompt. A diseaseContext naming a
// knowledge base entry adds that entry's reference data.
func AssistantPrompt(diseaseContext string) string {
	var b strings.Builder
	b.WriteString("You are an expert plant pathologist and agricultural advisor specialized in diagnosing and treating plant diseases. ")
	b.WriteString("Provide detailed, accurate, and helpful advice to gardeners and farmers about plant diseases, treatments, and best practices. ")
	b.WriteString("Keep your responses clear, practical, and actionable. ")

	if diseaseContext == "" {
		return b.String()
	}
	for _, e := range detector.KnowledgeEntries() {
		if e.Name != diseaseContext {
			continue
		}
		b.WriteString("The user is asking about " + e.Name + ", which has the following characteristics: ")
		b.WriteString("Description: " + e.Description + " ")
		b.WriteString("Severity: " + e.Severity + " ")
		b.WriteString("Common treatments include: " + strings.Join(e.Treatments, ", ") + ". ")
		break
	}
	return b.String()
}

// timedAsk wraps an assistant call with the oracle timeout and metrics
func timedAsk(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	answer, err := fn(ctx)
	metrics.RecordOracleCall(callAssistant, outcome(err), time.Since(start))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return NoAnswer, nil
	}
	return answer, nil
}
