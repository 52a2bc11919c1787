package workflow

import (
	"fmt"
	"strings"

	"github.com/jobpilot/backend/models"
)

// CvInput is the CV supplied by the user. It is one of TextInput,
// LinkedInInput or ManualInput.
type CvInput interface {
	cvInput()
}

// TextInput is raw CV text, pasted or extracted from an uploaded file
type TextInput struct {
	Text string
}

// LinkedInInput is a LinkedIn profile URL
type LinkedInInput struct {
	URL string
}

// ManualInput is CV data typed in the manual form
type ManualInput struct {
	Data models.CvData
}

func (TextInput) cvInput()     {}
func (LinkedInInput) cvInput() {}
func (ManualInput) cvInput()   {}

// ParseCvInput converts the tagged request body into a CvInput and checks
// that it carries content.
func ParseCvInput(req models.CvInputRequest) (CvInput, error) {
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case "text":
		if strings.TrimSpace(req.Content) == "" {
			return nil, fmt.Errorf("%w: CV text is empty", models.ErrInvalidInput)
		}
		return TextInput{Text: req.Content}, nil
	case "linkedin":
		if strings.TrimSpace(req.URL) == "" {
			return nil, fmt.Errorf("%w: LinkedIn URL is empty", models.ErrInvalidInput)
		}
		return LinkedInInput{URL: strings.TrimSpace(req.URL)}, nil
	case "manual":
		if req.Data == nil || strings.TrimSpace(req.Data.PersonalInfo.Name) == "" {
			return nil, fmt.Errorf("%w: manual CV requires a name", models.ErrInvalidInput)
		}
		return ManualInput{Data: *req.Data}, nil
	default:
		return nil, fmt.Errorf("%w: unknown CV input type %q", models.ErrInvalidInput, req.Type)
	}
}

// ValidateOptions checks the search options before any network call
func ValidateOptions(opts models.SearchOptions) (models.SearchOptions, error) {
	opts.Location = strings.TrimSpace(opts.Location)
	if opts.Location == "" {
		return opts, fmt.Errorf("%w: location is required", models.ErrInvalidInput)
	}
	opts.DatePosted = models.ParseDatePosted(string(opts.DatePosted))
	if opts.ContractTypes == nil {
		opts.ContractTypes = []string{}
	}
	return opts, nil
}
