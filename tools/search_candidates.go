package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jobpilot/backend/recruiter"
)

// SearchCandidatesTool finds candidate profiles for a job description
type SearchCandidatesTool struct {
	searcher recruiter.Searcher
}

// NewSearchCandidatesTool creates a new candidate search tool
func NewSearchCandidatesTool(searcher recruiter.Searcher) *SearchCandidatesTool {
	return &SearchCandidatesTool{searcher: searcher}
}

func (t *SearchCandidatesTool) Name() string {
	return "search_candidates"
}

func (t *SearchCandidatesTool) Description() string {
	return "Find public candidate profiles matching a job description, optionally near a location."
}

func (t *SearchCandidatesTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"description": stringProp("Job description"),
			"location":    stringProp("City or region"),
		},
		"required": []string{"description"},
	}
}

// SearchCandidatesInput represents the input for candidate search
type SearchCandidatesInput struct {
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (t *SearchCandidatesTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in SearchCandidatesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return NewErrorResult(fmt.Sprintf("invalid input: %v", err))
	}
	if strings.TrimSpace(in.Description) == "" {
		return NewErrorResult("description is required")
	}

	candidates, err := t.searcher.SearchCandidates(ctx, strings.TrimSpace(in.Description), strings.TrimSpace(in.Location))
	if err != nil {
		return NewErrorResult(fmt.Sprintf("candidate search failed: %v", err))
	}
	for i := range candidates {
		candidates[i].ID = uuid.NewString()
	}

	return NewSuccessResult(candidates)
}
