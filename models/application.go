package models

// ApplicationStatus is the lifecycle state of one application
type ApplicationStatus string

const (
	StatusReady                ApplicationStatus = "Ready"
	StatusGeneratingLetter     ApplicationStatus = "GeneratingLetter"
	StatusLetterGenerated      ApplicationStatus = "LetterGenerated"
	StatusAwaitingConfirmation ApplicationStatus = "AwaitingConfirmation"
	StatusSent                 ApplicationStatus = "Sent"
	StatusError                ApplicationStatus = "Error"
)

// Application tracks the candidacy for a single job
type Application struct {
	ID          string            `json:"id"`
	Job         Job               `json:"job"`
	CoverLetter string            `json:"coverLetter,omitempty"`
	Status      ApplicationStatus `json:"status"`
	IsSelected  bool              `json:"isSelected"`
}

// Speaker identifies who said a transcript line
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// TranscriptItem is one utterance of an interview session
type TranscriptItem struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}
