package gemini

import (
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/jobpilot/backend/models"
)

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func strList(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: &genai.Schema{Type: genai.TypeString}}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

var cvSchema = object([]string{"personalInfo", "skills", "experience", "education"}, map[string]*genai.Schema{
	"personalInfo": object([]string{"name"}, map[string]*genai.Schema{
		"name":  str("Full name"),
		"email": str("Email address"),
		"phone": str("Phone number"),
	}),
	"linkedin": str("LinkedIn profile URL"),
	"summary":  str("Professional summary"),
	"skills":   strList("Technical and soft skills"),
	"experience": {
		Type: genai.TypeArray,
		Items: object([]string{"jobTitle", "company"}, map[string]*genai.Schema{
			"jobTitle":         str("Position held"),
			"company":          str("Employer"),
			"duration":         str("Period, e.g. 2020 - 2023"),
			"responsibilities": strList("Main responsibilities and achievements"),
		}),
	},
	"education": {
		Type: genai.TypeArray,
		Items: object([]string{"degree", "institution"}, map[string]*genai.Schema{
			"degree":      str("Degree or diploma"),
			"institution": str("School or university"),
			"duration":    str("Period"),
		}),
	},
})

var candidatesSchema = object([]string{"candidates"}, map[string]*genai.Schema{
	"candidates": {
		Type: genai.TypeArray,
		Items: object([]string{"name", "jobTitle", "linkedinUrl", "source"}, map[string]*genai.Schema{
			"name":        str("Full name"),
			"jobTitle":    str("Current job title"),
			"photoUrl":    str("Profile photo URL"),
			"phone":       str("Phone number"),
			"linkedinUrl": str("LinkedIn profile URL"),
			"source":      str("Where the profile was found"),
		}),
	},
})

func extractCVPrompt(text string) string {
	prompt := `Analyze this CV/resume and extract structured information:
personal information, LinkedIn URL, summary, skills, work experience with responsibilities and education.
Keep the original language of the document. Use empty strings for missing data.`
	if text == "" {
		return prompt
	}
	return fmt.Sprintf("%s\n\nCV TEXT:\n%s", prompt, text)
}

func profileCVPrompt(profileURL string) string {
	return fmt.Sprintf(`Build a realistic CV for the professional whose public LinkedIn profile is at %s.
Infer the job titles, companies, skills and education a profile like this one shows.
Set the linkedin field to the profile URL.`, profileURL)
}

func searchJobsPrompt(query models.JobQuery, maxResults int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find up to %d recent, real job postings in %s matching these skills: %s.\n",
		maxResults, query.Location, strings.Join(query.Skills, ", "))
	if len(query.ContractTypes) > 0 {
		fmt.Fprintf(&sb, "Only include these contract types: %s.\n", strings.Join(query.ContractTypes, ", "))
	}
	if query.DatePosted == models.DatePostedLastMonth {
		sb.WriteString("Only include postings published during the last month.\n")
	}
	sb.WriteString("For each job give the direct URL of the posting and, when available, the company website, hiring email, address and phone number.\n")
	sb.WriteString("Return an empty list if nothing matches.")
	return sb.String()
}

func coverLetterPrompt(cvJSON, jobJSON, language string) string {
	if language == "" {
		language = "fr"
	}
	return fmt.Sprintf(`Write a concise, personalized cover letter for this job application.
Write it in the language with code %q. Return only the letter text, without a subject line or markdown.

CANDIDATE CV:
%s

JOB:
%s`, language, cvJSON, jobJSON)
}

func searchCandidatesPrompt(description, location string) string {
	prompt := fmt.Sprintf("Find public professional profiles of candidates matching this job description:\n%s\n", description)
	if location != "" {
		prompt += fmt.Sprintf("Candidates should be based in or near %s.\n", location)
	}
	return prompt + "Return an empty list if nobody matches."
}
