package interview

import (
	"fmt"
	"strings"

	"github.com/jobpilot/backend/models"
)

// BuildSystemInstruction describes the interviewer role for a given job and candidate
func BuildSystemInstruction(job models.Job, cv *models.CvData, language string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional recruiter at %s conducting a spoken job interview for the position of %s", job.Company, job.Title)
	if job.Location != "" {
		fmt.Fprintf(&sb, " based in %s", job.Location)
	}
	sb.WriteString(".\n")
	if language != "" {
		fmt.Fprintf(&sb, "Conduct the whole interview in the language with code %q.\n", language)
	}
	sb.WriteString("Ask one question at a time, keep your turns short and react to what the candidate says. ")
	sb.WriteString("Start by greeting the candidate and asking them to introduce themselves.\n\n")

	if job.Description != "" {
		sb.WriteString("JOB DESCRIPTION:\n")
		sb.WriteString(job.Description)
		sb.WriteString("\n\n")
	}

	if cv == nil {
		return sb.String()
	}

	sb.WriteString("CANDIDATE:\n")
	fmt.Fprintf(&sb, "Name: %s\n", cv.PersonalInfo.Name)
	if cv.Summary != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", cv.Summary)
	}
	if len(cv.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(cv.Skills, ", "))
	}
	for _, exp := range cv.Experience {
		fmt.Fprintf(&sb, "- %s at %s (%s)\n", exp.JobTitle, exp.Company, exp.Duration)
		for _, r := range exp.Responsibilities {
			fmt.Fprintf(&sb, "    * %s\n", r)
		}
	}
	for _, edu := range cv.Education {
		fmt.Fprintf(&sb, "- %s, %s (%s)\n", edu.Degree, edu.Institution, edu.Duration)
	}
	return sb.String()
}
