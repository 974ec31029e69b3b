package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/store"
)

// Snapshot is the portable export format. It wraps the full document with
// export metadata so a file can be inspected and re-imported standalone.
type Snapshot struct {
	Structures []domain.Structure `json:"structures"`
	Entries    []domain.Entry     `json:"entries"`
	NextID     int64              `json:"nextId"`
	Settings   *domain.Settings   `json:"config,omitempty"`
	ExportedAt string             `json:"exportedAt"`
	Version    string             `json:"version"`
}

const snapshotVersion = "2.0"

// Service produces and restores full-document snapshots.
type Service struct {
	store *store.Store
	log   zerolog.Logger
}

func NewService(s *store.Store, log zerolog.Logger) *Service {
	return &Service{
		store: s,
		log:   log.With().Str("component", "backup").Logger(),
	}
}

// Export serializes the current document into a snapshot and returns the
// suggested filename along with the encoded bytes. The last-backup marker
// in settings is updated as a side effect.
func (s *Service) Export() (string, []byte, error) {
	doc := s.store.Document()

	now := time.Now()
	snap := Snapshot{
		Structures: doc.Structures,
		Entries:    doc.Entries,
		NextID:     doc.NextID,
		Settings:   doc.Settings,
		ExportedAt: now.Format(time.RFC3339),
		Version:    snapshotVersion,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	settings := s.store.Settings()
	settings.LastBackup = now.Format(time.RFC3339)
	if err := s.store.UpdateSettings(settings); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record last-backup marker")
	}

	name := exportFilename(now, len(doc.Structures))
	s.log.Info().Str("file", name).Int("structures", len(doc.Structures)).Msg("Exported backup")
	return name, data, nil
}

// Import replaces the current document with the contents of a snapshot.
// The snapshot is validated before anything is swapped in; a bad file
// leaves the existing data untouched.
func (s *Service) Import(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}

	doc := domain.Document{
		Structures: snap.Structures,
		Entries:    snap.Entries,
		NextID:     snap.NextID,
		Settings:   snap.Settings,
	}
	if err := s.store.Replace(doc); err != nil {
		return err
	}
	if err := s.store.Save(); err != nil {
		return err
	}

	s.log.Info().Int("structures", len(snap.Structures)).Str("version", snap.Version).Msg("Imported backup")
	return nil
}

// exportFilename builds names like backup_trading_2025-03-03T10-00-00-07-00_12ops.json,
// replacing characters that are unsafe in filenames.
func exportFilename(t time.Time, count int) string {
	stamp := t.Format(time.RFC3339)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("backup_trading_%s_%dops.json", stamp, count)
}
