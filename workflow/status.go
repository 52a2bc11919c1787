package workflow

import (
	"errors"
	"fmt"

	"github.com/jobpilot/backend/models"
)

// ErrInvalidTransition is returned when an application cannot move to the requested status
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusReady:                {models.StatusGeneratingLetter, models.StatusError},
	models.StatusGeneratingLetter:     {models.StatusLetterGenerated, models.StatusError},
	models.StatusLetterGenerated:      {models.StatusAwaitingConfirmation, models.StatusGeneratingLetter},
	models.StatusAwaitingConfirmation: {models.StatusSent, models.StatusLetterGenerated},
	models.StatusError:                {models.StatusGeneratingLetter},
	models.StatusSent:                 nil,
}

// CanTransition reports whether an application may move from one status to another
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transition(app *models.Application, to models.ApplicationStatus) error {
	if !CanTransition(app.Status, to) {
		return fmt.Errorf("%w: %s -> %s (application %s)", ErrInvalidTransition, app.Status, to, app.ID)
	}
	app.Status = to
	return nil
}
