package models

// CvInputRequest is the tagged CV input sent by the UI
// @Description CV input: type is one of text, linkedin, manual
type CvInputRequest struct {
	Type    string  `json:"type" binding:"required" example:"text"`
	Content string  `json:"content,omitempty" example:"Jane Doe, 5 years React"`
	URL     string  `json:"url,omitempty" example:"https://www.linkedin.com/in/janedoe"`
	Data    *CvData `json:"data,omitempty"`
}

// AnalysisRequest starts a new candidate analysis
// @Description CV input and job search options
type AnalysisRequest struct {
	CvInput  CvInputRequest `json:"cvInput"`
	Options  SearchOptions  `json:"options"`
	Language string         `json:"language,omitempty" example:"fr"`
}

// RecruiterSearchRequest searches candidate profiles
// @Description Job description and optional location
type RecruiterSearchRequest struct {
	Description string `json:"description" example:"Senior React developer, TypeScript, GraphQL"`
	Location    string `json:"location,omitempty" example:"Lyon, France"`
}

// SessionResponse identifies a workflow session
// @Description Workflow session handle
type SessionResponse struct {
	SessionID string `json:"sessionId" example:"2f0c7d1e-2d5b-4a64-9d4e-1f3b8f2e9a10"`
}

// AcceptedResponse is returned when an operation continues in the background
// @Description Background operation accepted
type AcceptedResponse struct {
	Message string `json:"message" example:"analysis started"`
	Count   int    `json:"count,omitempty" example:"3"`
}

// UploadResponse carries the text extracted from an uploaded CV
// @Description Extracted CV text
type UploadResponse struct {
	FileName string `json:"fileName" example:"cv.pdf"`
	Text     string `json:"text"`
	CVUrl    string `json:"cvUrl,omitempty"`
}

// ErrorResponse represents an API error response
// @Description Standard error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid request body"`
	Code    int    `json:"code" example:"400"`
	Details string `json:"details,omitempty" example:"location is required"`
}

// HealthResponse represents health check response
// @Description Server health status
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Version   string `json:"version" example:"1.0.0"`
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Sessions  int    `json:"sessions" example:"3"`
}
