package client

import "context"

// AssistantService handles the plant care assistant
type AssistantService struct {
	client *Client
}

// Ask sends a question, optionally about a known disease, and returns the answer
func (s *AssistantService) Ask(ctx context.Context, question, diseaseContext string) (string, error) {
	req := map[string]string{
		"question": question,
	}
	if diseaseContext != "" {
		req["diseaseContext"] = diseaseContext
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := s.client.doRequest(ctx, "POST", "/api/voice-assistant", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
