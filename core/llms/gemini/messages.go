package gemini

import "github.com/tesslearn/tessa-core/core/llms"

type content struct {
	Role  contentRole `json:"role,omitempty"`
	Parts []part      `json:"parts"`
}

type contentRole string

const (
	contentRoleUser  contentRole = "user"
	contentRoleModel contentRole = "model"
)

type part struct {
	Text string `json:"text"`
}

type requestBody struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type streamingResponseBody struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason *string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// toContents maps provider-neutral history turns onto the wire shape.
// Assistant turns with no content are skipped, the API rejects empty parts.
func toContents(turns []llms.Turn) []content {
	contents := []content{}
	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}

		role := contentRoleUser
		if turn.Role == llms.TurnRoleAssistant {
			role = contentRoleModel
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: turn.Content}},
		})
	}
	return contents
}
