package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobpilot/backend/models"
)

// LetterWriter drafts cover letters
type LetterWriter interface {
	GenerateCoverLetter(ctx context.Context, cv *models.CvData, job models.Job, language string) (string, error)
}

// CoverLetterTool drafts a cover letter for a CV and a job
type CoverLetterTool struct {
	writer          LetterWriter
	defaultLanguage string
}

// NewCoverLetterTool creates a new cover letter tool
func NewCoverLetterTool(writer LetterWriter, defaultLanguage string) *CoverLetterTool {
	return &CoverLetterTool{writer: writer, defaultLanguage: defaultLanguage}
}

func (t *CoverLetterTool) Name() string {
	return "generate_cover_letter"
}

func (t *CoverLetterTool) Description() string {
	return `Draft a cover letter for a candidate CV and a job posting.
cv and job use the shapes returned by extract_cv and search_jobs.`
}

func (t *CoverLetterTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"cv":       map[string]interface{}{"type": "object", "description": "Structured CV data"},
			"job":      map[string]interface{}{"type": "object", "description": "Job posting"},
			"language": stringProp("Language code of the letter"),
		},
		"required": []string{"cv", "job"},
	}
}

// CoverLetterInput represents the input for letter generation
type CoverLetterInput struct {
	CV       *models.CvData `json:"cv"`
	Job      models.Job     `json:"job"`
	Language string         `json:"language"`
}

// CoverLetterOutput is the generated letter
type CoverLetterOutput struct {
	CoverLetter string `json:"coverLetter"`
}

func (t *CoverLetterTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in CoverLetterInput
	if err := json.Unmarshal(input, &in); err != nil {
		return NewErrorResult(fmt.Sprintf("invalid input: %v", err))
	}
	if in.CV == nil {
		return NewErrorResult("cv is required")
	}
	if in.Language == "" {
		in.Language = t.defaultLanguage
	}

	letter, err := t.writer.GenerateCoverLetter(ctx, in.CV, in.Job, in.Language)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("letter generation failed: %v", err))
	}

	return NewSuccessResult(CoverLetterOutput{CoverLetter: letter})
}
