package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jobpilot/backend/models"
)

// JobSearcher finds job postings
type JobSearcher interface {
	SearchJobs(ctx context.Context, query models.JobQuery) (*models.JobSearchResult, error)
}

// SearchJobsTool searches job postings for a set of skills
type SearchJobsTool struct {
	searcher JobSearcher
}

// NewSearchJobsTool creates a new job search tool
func NewSearchJobsTool(searcher JobSearcher) *SearchJobsTool {
	return &SearchJobsTool{searcher: searcher}
}

func (t *SearchJobsTool) Name() string {
	return "search_jobs"
}

func (t *SearchJobsTool) Description() string {
	return `Search recent job postings matching skills in a location.
Returns the jobs and the web sources they were found on.`
}

func (t *SearchJobsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"skills":         stringListProp("Candidate skills"),
			"location":       stringProp("City or region"),
			"contract_types": stringListProp("Accepted contract types, e.g. CDI, freelance"),
			"date_posted": map[string]interface{}{
				"type":        "string",
				"description": "Publication window",
				"enum":        []string{string(models.DatePostedAny), string(models.DatePostedLastMonth)},
			},
		},
		"required": []string{"skills", "location"},
	}
}

// SearchJobsInput represents the input for job search
type SearchJobsInput struct {
	Skills        []string `json:"skills"`
	Location      string   `json:"location"`
	ContractTypes []string `json:"contract_types"`
	DatePosted    string   `json:"date_posted"`
}

func (t *SearchJobsTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in SearchJobsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return NewErrorResult(fmt.Sprintf("invalid input: %v", err))
	}
	if strings.TrimSpace(in.Location) == "" {
		return NewErrorResult("location is required")
	}

	result, err := t.searcher.SearchJobs(ctx, models.JobQuery{
		Skills:        in.Skills,
		Location:      strings.TrimSpace(in.Location),
		ContractTypes: in.ContractTypes,
		DatePosted:    models.ParseDatePosted(in.DatePosted),
	})
	if err != nil {
		return NewErrorResult(fmt.Sprintf("job search failed: %v", err))
	}

	return NewSuccessResult(result)
}
