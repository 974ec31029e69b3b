// Package store owns the in-memory tracker document and its file persistence.
//
// All mutation goes through explicit methods here; the raw collections are
// never handed out by reference. A single writer lock plus an atomic
// temp-file-and-rename write keep the persisted document consistent even when
// timer-triggered saves overlap user-triggered ones.
package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/domain"
)

// Store holds the tracker document and persists it as a JSON file.
type Store struct {
	mu       sync.RWMutex
	doc      domain.Document
	path     string
	dirty    bool
	defaults domain.Settings
	log      zerolog.Logger
}

// New creates a store persisting to the given file path.
func New(path string, log zerolog.Logger) *Store {
	return &Store{
		doc:      domain.EmptyDocument(),
		path:     path,
		defaults: domain.DefaultSettings(),
		log:      log.With().Str("component", "store").Logger(),
	}
}

// SetDefaultSettings replaces the settings applied when a document carries
// none of its own: the empty first-run document, a cleared document, and
// loaded or imported documents without a config block. Call before Load.
// Settings stored in the document itself always win.
func (s *Store) SetDefaultSettings(settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = settings
	if len(s.doc.Structures) == 0 && len(s.doc.Entries) == 0 && !s.dirty {
		copied := settings
		s.doc.Settings = &copied
	}
}

// Load reads the document from disk. A missing file is not an error: the
// store starts from the empty default. A malformed file is an error and
// leaves the in-memory state untouched.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.log.Warn().Str("path", s.path).Msg("Data file not found, starting with empty document")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	doc, err := parseDocument(data, s.defaults)
	if err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.dirty = false

	s.log.Info().
		Int("structures", len(doc.Structures)).
		Int("entries", len(doc.Entries)).
		Int64("nextId", doc.NextID).
		Msg("Loaded document")
	return nil
}

// Save recomputes every entry result and writes the document atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// SaveIfDirty persists the document only when it holds unsaved changes and is
// non-empty. Returns whether a save happened.
func (s *Store) SaveIfDirty() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return false, nil
	}
	if len(s.doc.Structures) == 0 && len(s.doc.Entries) == 0 {
		return false, nil
	}

	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) saveLocked() error {
	RecomputeResults(s.doc.Entries)

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	s.dirty = false
	s.log.Debug().Int("bytes", len(data)).Msg("Document saved")
	return nil
}

// RecomputeResults overwrites every entry's Result with the persistence rule,
// regardless of what the client supplied.
//
// Open legs (zero exit price) persist a result of 0; the open-cost placeholder
// from the result engine is a display concern only. The pass is idempotent.
func RecomputeResults(entries []domain.Entry) {
	for i := range entries {
		e := &entries[i]
		if e.IsOpen() {
			e.Result = 0
			continue
		}
		if e.Direction == domain.DirectionBuy {
			e.Result = (e.ExitPrice - e.EntryPrice) * float64(e.Quantity)
		} else {
			e.Result = (e.EntryPrice - e.ExitPrice) * float64(e.Quantity)
		}
	}
}

// Document returns a deep copy of the current document.
func (s *Store) Document() domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDocument(s.doc)
}

// Replace validates an entire incoming document, recomputes its results and
// swaps it in. The previous state is untouched when validation fails.
func (s *Store) Replace(doc domain.Document) error {
	if err := validateDocument(&doc, s.defaults); err != nil {
		return err
	}
	RecomputeResults(doc.Entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.dirty = true
	return nil
}

// Clear resets the store to the empty default document.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = domain.EmptyDocument()
	settings := s.defaults
	s.doc.Settings = &settings
	s.dirty = true
	s.log.Info().Msg("Document cleared")
}

// Settings returns the current tracker settings.
func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.Settings == nil {
		return s.defaults
	}
	return *s.doc.Settings
}

// UpdateSettings replaces the tracker settings.
func (s *Store) UpdateSettings(settings domain.Settings) error {
	if settings.AutoBackupInterval < 0 {
		return fmt.Errorf("auto-backup interval must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings = &settings
	s.dirty = true
	return nil
}

// CreateStructure assigns the next monotonic ID and appends the structure.
// The returned bool reports whether an auto-backup is now due.
func (s *Store) CreateStructure(structure domain.Structure) (domain.Structure, bool, error) {
	structure.UnderlyingAsset = domain.NormalizeSymbol(structure.UnderlyingAsset)
	if err := validateStructure(structure); err != nil {
		return domain.Structure{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	structure.ID = s.doc.NextID
	s.doc.NextID++
	s.doc.Structures = append(s.doc.Structures, structure)
	s.dirty = true

	interval := s.defaults.AutoBackupInterval
	if s.doc.Settings != nil {
		interval = s.doc.Settings.AutoBackupInterval
	}
	due := backupDue(len(s.doc.Structures), interval)

	s.log.Info().Int64("id", structure.ID).Str("asset", structure.UnderlyingAsset).Msg("Structure created")
	return structure, due, nil
}

// backupDue implements the auto-backup policy. An interval of 0 disables the
// trigger entirely (and guards the modulo below).
func backupDue(count, interval int) bool {
	if count <= 0 || interval <= 0 {
		return false
	}
	return count%interval == 0
}

// UpdateStructure replaces the structure with the same ID.
func (s *Store) UpdateStructure(structure domain.Structure) error {
	structure.UnderlyingAsset = domain.NormalizeSymbol(structure.UnderlyingAsset)
	if err := validateStructure(structure); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Structures {
		if s.doc.Structures[i].ID == structure.ID {
			s.doc.Structures[i] = structure
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("structure %d not found", structure.ID)
}

// DeleteStructure removes a structure and cascades to its entries as one
// atomic operation: readers never observe the structure gone while its
// entries remain.
func (s *Store) DeleteStructure(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	structures := s.doc.Structures[:0]
	for _, structure := range s.doc.Structures {
		if structure.ID == id {
			found = true
			continue
		}
		structures = append(structures, structure)
	}
	if !found {
		return fmt.Errorf("structure %d not found", id)
	}
	s.doc.Structures = structures

	entries := s.doc.Entries[:0]
	removed := 0
	for _, entry := range s.doc.Entries {
		if entry.StructureID == id {
			removed++
			continue
		}
		entries = append(entries, entry)
	}
	s.doc.Entries = entries
	s.dirty = true

	s.log.Info().Int64("id", id).Int("cascaded_entries", removed).Msg("Structure deleted")
	return nil
}

// GetStructure returns a structure by ID.
func (s *Store) GetStructure(id int64) (domain.Structure, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, structure := range s.doc.Structures {
		if structure.ID == id {
			return structure, true
		}
	}
	return domain.Structure{}, false
}

// Filter selects structures from the collection without mutating it.
// A zero-value criterion matches everything.
type Filter struct {
	Strategy string // exact match
	Asset    string // case-insensitive substring match
	Status   string // "open", "closed" or empty for all
}

// ListStructures returns the structures matching the filter, in insertion order.
func (s *Store) ListStructures(filter Filter) []domain.Structure {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset := strings.ToUpper(filter.Asset)
	matched := []domain.Structure{}
	for _, structure := range s.doc.Structures {
		if filter.Strategy != "" && structure.StrategyName != filter.Strategy {
			continue
		}
		if asset != "" && !strings.Contains(structure.UnderlyingAsset, asset) {
			continue
		}
		if filter.Status == "open" && !structure.IsOpen() {
			continue
		}
		if filter.Status == "closed" && structure.IsOpen() {
			continue
		}
		matched = append(matched, structure)
	}
	return matched
}

// CreateEntry validates the leg against its parent structure, assigns a
// stable UUID and appends it. The persisted result follows the recompute
// rule: realized for closed legs, 0 for open ones.
func (s *Store) CreateEntry(entry domain.Entry) (domain.Entry, error) {
	entry.Asset = domain.NormalizeSymbol(entry.Asset)
	if err := validateEntry(entry); err != nil {
		return domain.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.structureExistsLocked(entry.StructureID) {
		return domain.Entry{}, fmt.Errorf("structure %d not found", entry.StructureID)
	}

	entry.ID = uuid.NewString()
	recomputeOne(&entry)
	s.doc.Entries = append(s.doc.Entries, entry)
	s.dirty = true

	s.log.Info().Str("id", entry.ID).Str("asset", entry.Asset).Int64("structureId", entry.StructureID).Msg("Entry created")
	return entry, nil
}

// UpdateEntry replaces the entry with the same ID, keeping the ID stable.
func (s *Store) UpdateEntry(entry domain.Entry) error {
	entry.Asset = domain.NormalizeSymbol(entry.Asset)
	if err := validateEntry(entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.structureExistsLocked(entry.StructureID) {
		return fmt.Errorf("structure %d not found", entry.StructureID)
	}

	for i := range s.doc.Entries {
		if s.doc.Entries[i].ID == entry.ID {
			recomputeOne(&entry)
			s.doc.Entries[i] = entry
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("entry %s not found", entry.ID)
}

// DeleteEntry removes a single entry by ID.
func (s *Store) DeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Entries {
		if s.doc.Entries[i].ID == id {
			s.doc.Entries = append(s.doc.Entries[:i], s.doc.Entries[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("entry %s not found", id)
}

// ListEntries returns a copy of all entries in insertion order.
func (s *Store) ListEntries() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.Entry, len(s.doc.Entries))
	copy(entries, s.doc.Entries)
	return entries
}

// EntriesByStructure returns the entries belonging to one structure.
func (s *Store) EntriesByStructure(structureID int64) []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []domain.Entry{}
	for _, entry := range s.doc.Entries {
		if entry.StructureID == structureID {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (s *Store) structureExistsLocked(id int64) bool {
	for _, structure := range s.doc.Structures {
		if structure.ID == id {
			return true
		}
	}
	return false
}

// recomputeOne applies the persistence rule to a single entry.
func recomputeOne(entry *domain.Entry) {
	entries := []domain.Entry{*entry}
	RecomputeResults(entries)
	entry.Result = entries[0].Result
}

func validateStructure(structure domain.Structure) error {
	if structure.EntryDate == "" {
		return fmt.Errorf("entry date is required")
	}
	if structure.StrategyName == "" {
		return fmt.Errorf("strategy name is required")
	}
	if structure.UnderlyingAsset == "" {
		return fmt.Errorf("underlying asset is required")
	}
	return nil
}

func validateEntry(entry domain.Entry) error {
	if entry.Asset == "" {
		return fmt.Errorf("asset symbol is required")
	}
	switch entry.Type {
	case domain.AssetTypeCall, domain.AssetTypePut, domain.AssetTypeStock:
	default:
		return fmt.Errorf("invalid asset type %q", entry.Type)
	}
	switch entry.Direction {
	case domain.DirectionBuy, domain.DirectionSell:
	default:
		return fmt.Errorf("invalid direction %q", entry.Direction)
	}
	if entry.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	for name, v := range map[string]float64{
		"entry price": entry.EntryPrice,
		"exit price":  entry.ExitPrice,
		"strike":      entry.Strike,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not a valid number", name)
		}
	}
	return nil
}

// validateDocument checks an incoming full document before it replaces state.
// It also normalizes absent collections and settings, and assigns IDs to
// entries imported from documents predating stable entry identity.
func validateDocument(doc *domain.Document, defaults domain.Settings) error {
	if doc.Structures == nil {
		doc.Structures = []domain.Structure{}
	}
	if doc.Entries == nil {
		doc.Entries = []domain.Entry{}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	if doc.Settings == nil {
		settings := defaults
		doc.Settings = &settings
	}

	seen := make(map[int64]bool, len(doc.Structures))
	for i := range doc.Structures {
		structure := &doc.Structures[i]
		structure.UnderlyingAsset = domain.NormalizeSymbol(structure.UnderlyingAsset)
		if err := validateStructure(*structure); err != nil {
			return fmt.Errorf("structure %d: %w", structure.ID, err)
		}
		if structure.ID < 1 {
			return fmt.Errorf("structure id %d must be positive", structure.ID)
		}
		if seen[structure.ID] {
			return fmt.Errorf("duplicate structure id %d", structure.ID)
		}
		seen[structure.ID] = true
		if structure.ID >= doc.NextID {
			return fmt.Errorf("structure id %d conflicts with nextId %d", structure.ID, doc.NextID)
		}
	}

	for i := range doc.Entries {
		entry := &doc.Entries[i]
		entry.Asset = domain.NormalizeSymbol(entry.Asset)
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if err := validateEntry(*entry); err != nil {
			return fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		if !seen[entry.StructureID] {
			return fmt.Errorf("entry %s references unknown structure %d", entry.ID, entry.StructureID)
		}
	}

	return nil
}

// parseDocument decodes and validates a raw document.
func parseDocument(data []byte, defaults domain.Settings) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, err
	}
	if err := validateDocument(&doc, defaults); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func copyDocument(doc domain.Document) domain.Document {
	out := domain.Document{NextID: doc.NextID}
	out.Structures = make([]domain.Structure, len(doc.Structures))
	copy(out.Structures, doc.Structures)
	out.Entries = make([]domain.Entry, len(doc.Entries))
	copy(out.Entries, doc.Entries)
	if doc.Settings != nil {
		settings := *doc.Settings
		out.Settings = &settings
	}
	return out
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over the destination, so readers never see a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
