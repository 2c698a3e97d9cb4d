// Package gemini implements [tranquility.Model] for the Google Gemini API.
//
// Two clients share the same envelope translation. [Client] wraps the
// google.golang.org/genai SDK. [RESTClient] speaks the generateContent wire
// format directly over a [tranquility.Transport].
package gemini

const (
	// DefaultModel handles text chat.
	DefaultModel = "gemini-2.5-flash"

	// DefaultAudioModel handles inline audio.
	DefaultAudioModel = "gemini-2.5-flash-preview-09-2025"

	// DefaultBaseURL is the public Generative Language endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	apiVersion = "v1beta"
)

// apiRequest is the generateContent request body.
type apiRequest struct {
	Contents          []apiContent         `json:"contents"`
	SystemInstruction *apiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *apiGenerationConfig `json:"generationConfig,omitempty"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text       string   `json:"text,omitempty"`
	InlineData *apiBlob `json:"inlineData,omitempty"`
	Thought    bool     `json:"thought,omitempty"`
}

type apiBlob struct {
	MIMEType string `json:"mimeType"`
	// Data is base64 encoded.
	Data string `json:"data"`
}

type apiGenerationConfig struct {
	ResponseMIMEType string     `json:"responseMimeType,omitempty"`
	ResponseSchema   *apiSchema `json:"responseSchema,omitempty"`
}

type apiSchema struct {
	Type        string                `json:"type"`
	Description string                `json:"description,omitempty"`
	Properties  map[string]*apiSchema `json:"properties,omitempty"`
	Required    []string              `json:"required,omitempty"`
}

// apiResponse is the subset of the generateContent response that is read.
type apiResponse struct {
	Candidates []struct {
		Content      apiContent `json:"content"`
		FinishReason string     `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}
