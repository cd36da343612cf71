package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSuggestionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "suggestionInput",
		Method:        http.MethodPost,
		Path:          "/api/v1/suggestions/input",
		Summary:       "Suggestion keystroke",
		Description:   "Reports the current search box text. Once typing pauses, suggestions arrive on the event stream as suggestions.updated.",
		Tags:          []string{"Movies"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusAccepted,
	}, s.handleSuggestionInput)
}

// SuggestionInputRequest is the current search box text.
type SuggestionInputRequest struct {
	Text string `json:"text" maxLength:"200" doc:"Current input text"`
}

// SuggestionInputInput wraps a keystroke for Huma.
type SuggestionInputInput struct {
	Authorization string `header:"Authorization"`
	Body          SuggestionInputRequest
}

func (s *Server) handleSuggestionInput(ctx context.Context, input *SuggestionInputInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	s.services.Suggester.Input(userID, input.Body.Text)
	return &MessageOutput{Body: MessageResponse{Message: "Suggestions will follow on the event stream"}}, nil
}
