package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"

	"github.com/jobpilot/backend/models"
)

// Grounded requests cannot carry a response schema, so the JSON shape is
// spelled out in the prompt instead.
const jobsFormat = `Answer with JSON only, shaped as {"jobs": [{"title", "company", "location", "description", "source", "url", "companyWebsite", "hiringEmail", "address", "phone"}]}. ` +
	`title, company, location, description, source and url are required strings; leave the others out when unknown.`

func newPredictionClient(ctx context.Context, location string) (*aiplatform.PredictionClient, error) {
	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)
	return aiplatform.NewPredictionClient(ctx, option.WithEndpoint(endpoint))
}

func (c *Client) modelPath() string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", c.projectID, c.location, c.modelName)
}

// groundedRequest asks the model to answer with Google Search enabled
func (c *Client) groundedRequest(prompt string) *aiplatformpb.GenerateContentRequest {
	temperature, topP := float32(0.2), float32(0.8)
	maxTokens := int32(8192)
	return &aiplatformpb.GenerateContentRequest{
		Model: c.modelPath(),
		Contents: []*aiplatformpb.Content{{
			Role:  "user",
			Parts: []*aiplatformpb.Part{{Data: &aiplatformpb.Part_Text{Text: prompt}}},
		}},
		Tools: []*aiplatformpb.Tool{{GoogleSearchRetrieval: &aiplatformpb.GoogleSearchRetrieval{}}},
		GenerationConfig: &aiplatformpb.GenerationConfig{
			Temperature:     &temperature,
			TopP:            &topP,
			MaxOutputTokens: &maxTokens,
		},
	}
}

func (c *Client) searchGrounded(ctx context.Context, prompt string) (*aiplatformpb.GenerateContentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransportFailure, err)
	}
	resp, err := c.search.GenerateContent(ctx, c.groundedRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: grounded search failed: %w", models.ErrTransportFailure, err)
	}
	if queries := groundingQueries(resp); len(queries) > 0 {
		log.Printf("[Gemini] Search grounded on: %s", strings.Join(queries, "; "))
	}
	return resp, nil
}

func groundedText(resp *aiplatformpb.GenerateContentResponse) string {
	cands := resp.GetCandidates()
	if len(cands) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range cands[0].GetContent().GetParts() {
		sb.WriteString(part.GetText())
	}
	return sb.String()
}

// groundedSources lists the web pages the answer was attributed to, first
// occurrence wins.
func groundedSources(resp *aiplatformpb.GenerateContentResponse) []models.SourceRef {
	sources := []models.SourceRef{}
	seen := make(map[string]bool)
	for _, cand := range resp.GetCandidates() {
		for _, cit := range cand.GetCitationMetadata().GetCitations() {
			uri := cit.GetUri()
			if uri == "" || seen[uri] {
				continue
			}
			seen[uri] = true
			sources = append(sources, models.SourceRef{URI: uri, Title: cit.GetTitle()})
		}
	}
	return sources
}

func groundingQueries(resp *aiplatformpb.GenerateContentResponse) []string {
	var queries []string
	for _, cand := range resp.GetCandidates() {
		queries = append(queries, cand.GetGroundingMetadata().GetWebSearchQueries()...)
	}
	return queries
}
