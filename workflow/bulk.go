package workflow

import (
	"context"
	"log"

	"github.com/jobpilot/backend/models"
)

// Coordinator runs generate and apply over the selected applications.
//
// Single and bulk apply move applications to the same AwaitingConfirmation
// status, so confirming or cancelling a bulk batch also settles any
// application that was applied individually in the meantime.
type Coordinator struct {
	ctrl *Controller
}

// NewCoordinator creates a coordinator on top of ctrl
func NewCoordinator(ctrl *Controller) *Coordinator {
	return &Coordinator{ctrl: ctrl}
}

// ToggleSelect flips the selection flag of one application
func (b *Coordinator) ToggleSelect(id string) bool {
	store := b.ctrl.store
	return store.UpdateApp(store.Epoch(), id, func(app *models.Application) bool {
		app.IsSelected = !app.IsSelected
		return true
	})
}

// ToggleSelectAll selects every application unless all of them already are,
// in which case it clears the selection.
func (b *Coordinator) ToggleSelectAll() {
	store := b.ctrl.store
	store.Update(store.Epoch(), func(apps []models.Application) []models.Application {
		allSelected := true
		for _, app := range apps {
			if !app.IsSelected {
				allSelected = false
				break
			}
		}
		for i := range apps {
			apps[i].IsSelected = !allSelected
		}
		return apps
	})
}

// BulkGenerate starts a letter generation for every selected application that
// is Ready or in Error. The generations run on their own and are not awaited.
// It returns how many were started.
func (b *Coordinator) BulkGenerate(ctx context.Context) (int, error) {
	snap := b.ctrl.store.Snapshot()
	if snap.CV == nil {
		b.ctrl.store.Fail(snap.Epoch, ErrMissingCV.Error())
		return 0, ErrMissingCV
	}

	ctx = context.WithoutCancel(ctx)
	count := 0
	for _, app := range snap.Applications {
		if !app.IsSelected {
			continue
		}
		if app.Status != models.StatusReady && app.Status != models.StatusError {
			continue
		}
		count++
		go func(id string) {
			if err := b.ctrl.GenerateLetter(ctx, id); err != nil {
				log.Printf("[Workflow] Bulk generation for %s ended with: %v", id, err)
			}
		}(app.ID)
	}

	log.Printf("[Workflow] Bulk generation fired for %d applications", count)
	return count, nil
}

// BulkApply moves every selected application with a generated letter to
// AwaitingConfirmation and opens its job posting. Applications in any other
// status are left untouched. It returns the batch.
func (b *Coordinator) BulkApply() ([]models.Application, error) {
	store := b.ctrl.store
	cv, epoch := store.CV()
	if cv == nil {
		store.Fail(epoch, ErrMissingCV.Error())
		return nil, ErrMissingCV
	}

	var batch []models.Application
	store.Update(epoch, func(apps []models.Application) []models.Application {
		for i := range apps {
			if !apps[i].IsSelected || apps[i].Status != models.StatusLetterGenerated {
				continue
			}
			apps[i].Status = models.StatusAwaitingConfirmation
			batch = append(batch, apps[i])
		}
		return apps
	})

	for _, app := range batch {
		if app.Job.URL != "" {
			b.ctrl.opener.OpenURL(app.Job.URL)
		}
	}
	return batch, nil
}

// ConfirmBulkSent marks every application awaiting confirmation as Sent and
// deselects it.
func (b *Coordinator) ConfirmBulkSent() int {
	return b.settlePending(func(app *models.Application) {
		app.Status = models.StatusSent
		app.IsSelected = false
	})
}

// CancelBulkConfirmation returns every application awaiting confirmation to LetterGenerated
func (b *Coordinator) CancelBulkConfirmation() int {
	return b.settlePending(func(app *models.Application) {
		app.Status = models.StatusLetterGenerated
	})
}

func (b *Coordinator) settlePending(fn func(app *models.Application)) int {
	store := b.ctrl.store
	count := 0
	store.Update(store.Epoch(), func(apps []models.Application) []models.Application {
		for i := range apps {
			if apps[i].Status == models.StatusAwaitingConfirmation {
				fn(&apps[i])
				count++
			}
		}
		return apps
	})
	return count
}
