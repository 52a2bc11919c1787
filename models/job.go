package models

import (
	"encoding/json"
	"strings"
)

// FlexibleStringSlice can unmarshal from either a string or []string
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "" {
			*f = []string{str}
		} else {
			*f = []string{}
		}
		return nil
	}

	*f = []string{}
	return nil
}

// Job represents an employment opportunity returned by the job search
type Job struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Source      string `json:"source"` // LinkedIn, Indeed, company website...
	URL         string `json:"url"`

	// Optional contact metadata
	CompanyWebsite string `json:"companyWebsite,omitempty"`
	HiringEmail    string `json:"hiringEmail,omitempty"`
	Address        string `json:"address,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// SourceRef is a web source cited by the job search
type SourceRef struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// JobSearchResult is the outcome of one job search call
type JobSearchResult struct {
	Jobs    []Job       `json:"jobs"`
	Sources []SourceRef `json:"sources"`
}

// DatePosted restricts the publication date of the searched jobs
type DatePosted string

const (
	DatePostedAny       DatePosted = "any"
	DatePostedLastMonth DatePosted = "lastMonth"
)

// ParseDatePosted normalizes the values sent by the UI
func ParseDatePosted(raw string) DatePosted {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lastmonth", "last_month", "month":
		return DatePostedLastMonth
	default:
		return DatePostedAny
	}
}

// SearchOptions are the user-supplied job search criteria
type SearchOptions struct {
	Location      string     `json:"location"`
	ContractTypes []string   `json:"contractTypes"`
	DatePosted    DatePosted `json:"datePosted"`
}

// JobQuery is the input of a job search call
type JobQuery struct {
	Skills        []string
	Location      string
	ContractTypes []string
	DatePosted    DatePosted
}

// Candidate is a recruiter-mode search result
type Candidate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	JobTitle    string `json:"jobTitle"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedinUrl"`
	Source      string `json:"source"`
}
