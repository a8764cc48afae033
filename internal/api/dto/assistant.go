package dto

// VoiceAssistantRequest is a question for the plant care assistant
type VoiceAssistantRequest struct {
	Question       string `json:"question" validate:"required,max=2000"`
	DiseaseContext string `json:"diseaseContext,omitempty" validate:"max=200"`
}

// VoiceAssistantResponse carries the assistant's answer
type VoiceAssistantResponse struct {
	Response string `json:"response"`
}
