package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jobpilot/backend/models"
)

// CVExtractor turns CV material into structured data
type CVExtractor interface {
	ExtractCV(ctx context.Context, text string) (*models.CvData, error)
	ExtractCVFromPDF(ctx context.Context, pdfData []byte) (*models.CvData, error)
	GenerateCVFromProfile(ctx context.Context, profileURL string) (*models.CvData, error)
}

// ExtractCVTool extracts structured CV data from text, a PDF or a LinkedIn URL
type ExtractCVTool struct {
	extractor CVExtractor
}

// NewExtractCVTool creates a new CV extraction tool
func NewExtractCVTool(extractor CVExtractor) *ExtractCVTool {
	return &ExtractCVTool{extractor: extractor}
}

func (t *ExtractCVTool) Name() string {
	return "extract_cv"
}

func (t *ExtractCVTool) Description() string {
	return `Extract structured CV data (personal info, skills, experience, education).
Provide exactly one of cv_text, pdf_base64 or linkedin_url.`
}

func (t *ExtractCVTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"cv_text":      stringProp("The CV/resume text content"),
			"pdf_base64":   stringProp("A PDF CV, base64 encoded"),
			"linkedin_url": stringProp("A public LinkedIn profile URL"),
		},
	}
}

// ExtractCVInput represents the input for CV extraction
type ExtractCVInput struct {
	CVText      string `json:"cv_text"`
	PDFBase64   string `json:"pdf_base64"`
	LinkedInURL string `json:"linkedin_url"`
}

func (t *ExtractCVTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in ExtractCVInput
	if err := json.Unmarshal(input, &in); err != nil {
		return NewErrorResult(fmt.Sprintf("invalid input: %v", err))
	}

	var (
		cv  *models.CvData
		err error
	)
	switch {
	case strings.TrimSpace(in.CVText) != "":
		cv, err = t.extractor.ExtractCV(ctx, in.CVText)
	case in.PDFBase64 != "":
		data, decodeErr := base64.StdEncoding.DecodeString(in.PDFBase64)
		if decodeErr != nil {
			return NewErrorResult(fmt.Sprintf("invalid pdf_base64: %v", decodeErr))
		}
		cv, err = t.extractor.ExtractCVFromPDF(ctx, data)
	case strings.TrimSpace(in.LinkedInURL) != "":
		cv, err = t.extractor.GenerateCVFromProfile(ctx, strings.TrimSpace(in.LinkedInURL))
	default:
		return NewErrorResult("one of cv_text, pdf_base64 or linkedin_url is required")
	}
	if err != nil {
		return NewErrorResult(fmt.Sprintf("CV extraction failed: %v", err))
	}

	return NewSuccessResult(cv)
}
