package store

import (
	"context"
	"log"
	"sync"

	"github.com/user/fleet-dashboard-api/internal/models"
)

// VesselLister fetches the full vessel collection from the backend
type VesselLister interface {
	ListVessels(ctx context.Context) ([]models.Vessel, error)
}

// SelectionPersistence keeps the selected-vessel projection across restarts.
// Only the projection is durable; the collection is always re-fetched.
type SelectionPersistence interface {
	SaveSelectedVessel(v models.SelectedVessel) error
	LoadSelectedVessel() (*models.SelectedVessel, error)
	ClearSelectedVessel() error
}

// Notifier receives store change events (WebSocket fan-out)
type Notifier interface {
	VesselsRefreshed(vessels []models.Vessel)
	SelectionChanged(selected *models.SelectedVessel)
}

// Store - single source of truth for the vessel collection and the active
// selection. All mutation goes through its methods; components never touch
// the collection or the selection by any other path.
type Store struct {
	lister    VesselLister
	persist   SelectionPersistence
	notifier  Notifier
	mu        sync.RWMutex
	vessels   []models.Vessel
	selected  *models.SelectedVessel
	loading   bool
	lastError string
}

// Snapshot - point-in-time view of the store state
type Snapshot struct {
	Vessels  []models.Vessel        `json:"vessels"`
	Selected *models.SelectedVessel `json:"selectedVessel,omitempty"`
	Loading  bool                   `json:"loading"`
	Error    string                 `json:"error,omitempty"`
}

// New creates a store. notifier may be nil.
func New(lister VesselLister, persist SelectionPersistence, notifier Notifier) *Store {
	return &Store{lister: lister, persist: persist, notifier: notifier}
}

// LoadPersistedSelection restores the selection projection at startup
func (s *Store) LoadPersistedSelection() {
	if s.persist == nil {
		return
	}
	selected, err := s.persist.LoadSelectedVessel()
	if err != nil {
		log.Printf("[Store] selection restore failed: %v", err)
		return
	}
	s.mu.Lock()
	s.selected = selected
	s.mu.Unlock()
	if selected != nil {
		log.Printf("[Store] restored selection %s (%s)", selected.ID, selected.Name)
	}
}

// FetchVessels replaces the vessel collection from the backend. At most one
// invocation runs at a time; a call made while another is in flight is
// dropped. On failure the previous collection stays available and the error
// becomes a user-displayable message.
func (s *Store) FetchVessels(ctx context.Context) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	vessels, err := s.lister.ListVessels(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		// Stale-but-available: keep the old collection.
		s.lastError = "Failed to load vessel list"
		s.mu.Unlock()
		log.Printf("[Store] vessel fetch failed: %v", err)
		return
	}

	s.vessels = vessels

	var cleared bool
	if s.selected != nil && !containsID(vessels, s.selected.ID) {
		s.selected = nil
		cleared = true
	}
	selected := s.selected
	s.mu.Unlock()

	if cleared {
		log.Printf("[Store] selection cleared: vessel no longer in list")
		s.persistSelection(nil)
	}
	if s.notifier != nil {
		s.notifier.VesselsRefreshed(vessels)
		if cleared {
			s.notifier.SelectionChanged(selected)
		}
	}
}

// RefreshVessels is an alias for FetchVessels
func (s *Store) RefreshVessels(ctx context.Context) {
	s.FetchVessels(ctx)
}

// SetSelectedVessel unconditionally replaces the selection. No validation
// against the loaded collection: a selection may legitimately reference a
// vessel the list has not caught up with yet. nil clears.
func (s *Store) SetSelectedVessel(v *models.SelectedVessel) {
	s.mu.Lock()
	s.selected = v
	s.mu.Unlock()

	s.persistSelection(v)
	if s.notifier != nil {
		s.notifier.SelectionChanged(v)
	}
}

// ClearSelectedVessel sets the selection to nil
func (s *Store) ClearSelectedVessel() {
	s.SetSelectedVessel(nil)
}

// SelectedVessel returns the current selection, or nil
func (s *Store) SelectedVessel() *models.SelectedVessel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	v := *s.selected
	return &v
}

// Vessels returns a copy of the current collection
func (s *Store) Vessels() []models.Vessel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Vessel, len(s.vessels))
	copy(out, s.vessels)
	return out
}

// GetSnapshot returns the full store state
func (s *Store) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Vessels: make([]models.Vessel, len(s.vessels)),
		Loading: s.loading,
		Error:   s.lastError,
	}
	copy(snap.Vessels, s.vessels)
	if s.selected != nil {
		v := *s.selected
		snap.Selected = &v
	}
	return snap
}

// persistSelection writes through to durable storage, best-effort
func (s *Store) persistSelection(v *models.SelectedVessel) {
	if s.persist == nil {
		return
	}
	var err error
	if v == nil {
		err = s.persist.ClearSelectedVessel()
	} else {
		err = s.persist.SaveSelectedVessel(*v)
	}
	if err != nil {
		log.Printf("[Store] selection persist failed: %v", err)
	}
}

func containsID(vessels []models.Vessel, id string) bool {
	for _, v := range vessels {
		if v.ID == id {
			return true
		}
	}
	return false
}
