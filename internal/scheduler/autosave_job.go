package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/store"
)

// AutosaveJob periodically persists the document store when it holds unsaved
// changes. Overlapping runs are safe: the store serializes writers and the
// write itself is atomic, so the worst case is a redundant save.
type AutosaveJob struct {
	store *store.Store
	log   zerolog.Logger
}

// NewAutosaveJob creates a new autosave job.
func NewAutosaveJob(s *store.Store, log zerolog.Logger) *AutosaveJob {
	return &AutosaveJob{
		store: s,
		log:   log.With().Str("job", "autosave").Logger(),
	}
}

// Run saves the document if anything changed since the last save.
func (j *AutosaveJob) Run() error {
	saved, err := j.store.SaveIfDirty()
	if err != nil {
		j.log.Error().Err(err).Msg("Autosave failed")
		return err
	}
	if saved {
		j.log.Debug().Msg("Autosave completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *AutosaveJob) Name() string {
	return "autosave"
}
