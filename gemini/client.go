package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/time/rate"

	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/models"
)

// Client wraps the Vertex AI Gemini client and implements the request/response
// side of the AI gateway.
type Client struct {
	client     *genai.Client
	search     *aiplatform.PredictionClient
	projectID  string
	location   string
	modelName  string
	limiter    *rate.Limiter
	maxResults int
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	search, err := newPredictionClient(ctx, cfg.Location)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create prediction client: %w", err)
	}

	return &Client{
		client:     client,
		search:     search,
		projectID:  cfg.ProjectID,
		location:   cfg.Location,
		modelName:  cfg.GeminiModel,
		limiter:    rate.NewLimiter(rate.Limit(cfg.AIRequestsPerSecond), cfg.AIBurst),
		maxResults: cfg.MaxJobResults,
	}, nil
}

// Close closes the Gemini clients
func (c *Client) Close() error {
	return errors.Join(c.search.Close(), c.client.Close())
}

// model returns a fresh model handle; each call configures its own output mode
func (c *Client) model(temperature float32) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(temperature)
	model.SetTopP(0.8)
	model.SetMaxOutputTokens(8192)
	return model
}

func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransportFailure, err)
	}
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate content: %w", models.ErrTransportFailure, err)
	}
	return resp, nil
}

func (c *Client) generateJSON(ctx context.Context, schema *genai.Schema, out any, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	model := c.model(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := c.generate(ctx, model, parts...)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(extractText(resp), out); err != nil {
		return nil, err
	}
	return resp, nil
}

// ExtractCV turns raw CV text into structured data
func (c *Client) ExtractCV(ctx context.Context, text string) (*models.CvData, error) {
	var cv models.CvData
	if _, err := c.generateJSON(ctx, cvSchema, &cv, genai.Text(extractCVPrompt(text))); err != nil {
		return nil, err
	}
	cv.Normalize()
	log.Printf("[Gemini] Extracted CV: name=%s, skills=%d, experience=%d", cv.PersonalInfo.Name, len(cv.Skills), len(cv.Experience))
	return &cv, nil
}

// ExtractCVFromPDF reads the CV straight from PDF bytes, for scanned documents
// without a text layer.
func (c *Client) ExtractCVFromPDF(ctx context.Context, pdfData []byte) (*models.CvData, error) {
	blob := genai.Blob{MIMEType: "application/pdf", Data: pdfData}

	var cv models.CvData
	if _, err := c.generateJSON(ctx, cvSchema, &cv, blob, genai.Text(extractCVPrompt(""))); err != nil {
		return nil, err
	}
	cv.Normalize()
	return &cv, nil
}

// GenerateCVFromProfile builds CV data from a LinkedIn profile URL
func (c *Client) GenerateCVFromProfile(ctx context.Context, profileURL string) (*models.CvData, error) {
	var cv models.CvData
	if _, err := c.generateJSON(ctx, cvSchema, &cv, genai.Text(profileCVPrompt(profileURL))); err != nil {
		return nil, err
	}
	cv.Normalize()
	if cv.LinkedIn == "" {
		cv.LinkedIn = profileURL
	}
	return &cv, nil
}

// SearchJobs finds postings with Google Search grounding. No match is an
// empty result.
func (c *Client) SearchJobs(ctx context.Context, query models.JobQuery) (*models.JobSearchResult, error) {
	resp, err := c.searchGrounded(ctx, searchJobsPrompt(query, c.maxResults)+"\n"+jobsFormat)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Jobs []models.Job `json:"jobs"`
	}
	if err := decodeJSON(groundedText(resp), &payload); err != nil {
		return nil, err
	}

	result := &models.JobSearchResult{
		Jobs:    payload.Jobs,
		Sources: groundedSources(resp),
	}
	if result.Jobs == nil {
		result.Jobs = []models.Job{}
	}
	log.Printf("[Gemini] Job search in %s returned %d jobs", query.Location, len(result.Jobs))
	return result, nil
}

// GenerateCoverLetter drafts a cover letter. An empty letter is not an error.
func (c *Client) GenerateCoverLetter(ctx context.Context, cv *models.CvData, job models.Job, language string) (string, error) {
	cvJSON, _ := json.Marshal(cv)
	jobJSON, _ := json.Marshal(job)

	resp, err := c.generate(ctx, c.model(0.7), genai.Text(coverLetterPrompt(string(cvJSON), string(jobJSON), language)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extractText(resp)), nil
}

// SearchCandidates finds candidate profiles for a job description
func (c *Client) SearchCandidates(ctx context.Context, description, location string) ([]models.Candidate, error) {
	var payload struct {
		Candidates []models.Candidate `json:"candidates"`
	}
	if _, err := c.generateJSON(ctx, candidatesSchema, &payload, genai.Text(searchCandidatesPrompt(description, location))); err != nil {
		return nil, err
	}
	if payload.Candidates == nil {
		payload.Candidates = []models.Candidate{}
	}
	return payload.Candidates, nil
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String()
}

func cleanJSON(text string) string {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func decodeJSON(text string, out any) error {
	text = cleanJSON(text)
	if text == "" {
		return fmt.Errorf("%w: empty response", models.ErrInvalidFormat)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		log.Printf("[Gemini] Failed to parse response: %.200s", text)
		return fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
	}
	return nil
}
