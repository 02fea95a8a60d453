package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/fleet-dashboard-api/internal/models"
)

// fakeLister - scripted backend. When block is set, ListVessels waits on it
// after signalling entered.
type fakeLister struct {
	mu      sync.Mutex
	calls   int
	vessels []models.Vessel
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeLister) ListVessels(ctx context.Context) ([]models.Vessel, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.vessels, f.err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePersist - in-memory selection persistence
type fakePersist struct {
	mu       sync.Mutex
	selected *models.SelectedVessel
	clears   int
}

func (f *fakePersist) SaveSelectedVessel(v models.SelectedVessel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = &v
	return nil
}

func (f *fakePersist) LoadSelectedVessel() (*models.SelectedVessel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected, nil
}

func (f *fakePersist) ClearSelectedVessel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = nil
	f.clears++
	return nil
}

// fakeNotifier - records emitted events
type fakeNotifier struct {
	mu         sync.Mutex
	refreshes  int
	selections []*models.SelectedVessel
}

func (f *fakeNotifier) VesselsRefreshed(vessels []models.Vessel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeNotifier) SelectionChanged(selected *models.SelectedVessel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selections = append(f.selections, selected)
}

func vessel(id, name string) models.Vessel {
	return models.Vessel{ID: id, Name: name, VpnIP: "10.0.0.1"}
}

func TestFetchVesselsReplacesCollection(t *testing.T) {
	lister := &fakeLister{vessels: []models.Vessel{vessel("A", "Alpha"), vessel("B", "Bravo")}}
	s := New(lister, nil, nil)

	s.FetchVessels(context.Background())

	got := s.Vessels()
	if len(got) != 2 || got[0].ID != "A" || got[1].ID != "B" {
		t.Fatalf("unexpected collection: %v", got)
	}
	snap := s.GetSnapshot()
	if snap.Loading || snap.Error != "" {
		t.Errorf("snapshot = loading %v, error %q", snap.Loading, snap.Error)
	}
}

func TestFetchVesselsSingleFlight(t *testing.T) {
	lister := &fakeLister{
		vessels: []models.Vessel{vessel("A", "Alpha")},
		entered: make(chan struct{}),
		block:   make(chan struct{}),
	}
	s := New(lister, nil, nil)

	done := make(chan struct{})
	go func() {
		s.FetchVessels(context.Background())
		close(done)
	}()
	<-lister.entered // first fetch is inside the backend call

	// Concurrent calls while one is in flight must be dropped.
	s.FetchVessels(context.Background())
	s.FetchVessels(context.Background())

	if !s.GetSnapshot().Loading {
		t.Error("snapshot not loading while a fetch is in flight")
	}

	close(lister.block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never finished")
	}

	if n := lister.callCount(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}

func TestFetchErrorKeepsStaleList(t *testing.T) {
	lister := &fakeLister{vessels: []models.Vessel{vessel("A", "Alpha")}}
	s := New(lister, nil, nil)
	s.FetchVessels(context.Background())

	lister.err = errors.New("backend down")
	s.FetchVessels(context.Background())

	got := s.Vessels()
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("stale list lost on error: %v", got)
	}
	snap := s.GetSnapshot()
	if snap.Error == "" {
		t.Error("snapshot carries no error message after a failed fetch")
	}

	// A later successful fetch clears the error.
	lister.err = nil
	s.FetchVessels(context.Background())
	if snap := s.GetSnapshot(); snap.Error != "" {
		t.Errorf("error not cleared after recovery: %q", snap.Error)
	}
}

func TestSelectionClearedWhenVesselDisappears(t *testing.T) {
	lister := &fakeLister{vessels: []models.Vessel{vessel("A", "Alpha"), vessel("B", "Bravo")}}
	persist := &fakePersist{}
	notifier := &fakeNotifier{}
	s := New(lister, persist, notifier)

	s.FetchVessels(context.Background())
	sel := vessel("B", "Bravo").Projection()
	s.SetSelectedVessel(&sel)

	lister.vessels = []models.Vessel{vessel("A", "Alpha")}
	s.FetchVessels(context.Background())

	if s.SelectedVessel() != nil {
		t.Error("selection survived removal of its vessel from the list")
	}
	persist.mu.Lock()
	clears := persist.clears
	persist.mu.Unlock()
	if clears == 0 {
		t.Error("cleared selection was not persisted")
	}
	notifier.mu.Lock()
	last := notifier.selections[len(notifier.selections)-1]
	notifier.mu.Unlock()
	if last != nil {
		t.Error("last selection event should carry nil")
	}
}

func TestSelectionPreservedWhenVesselStays(t *testing.T) {
	lister := &fakeLister{vessels: []models.Vessel{vessel("A", "Alpha"), vessel("B", "Bravo")}}
	s := New(lister, &fakePersist{}, nil)

	s.FetchVessels(context.Background())
	sel := vessel("B", "Bravo").Projection()
	s.SetSelectedVessel(&sel)

	s.FetchVessels(context.Background())

	got := s.SelectedVessel()
	if got == nil || got.ID != "B" {
		t.Errorf("selection = %v, want B", got)
	}
}

func TestSelectionPreservedOnFetchError(t *testing.T) {
	lister := &fakeLister{vessels: []models.Vessel{vessel("B", "Bravo")}}
	s := New(lister, nil, nil)
	s.FetchVessels(context.Background())

	sel := vessel("B", "Bravo").Projection()
	s.SetSelectedVessel(&sel)

	lister.err = errors.New("backend down")
	s.FetchVessels(context.Background())

	if got := s.SelectedVessel(); got == nil || got.ID != "B" {
		t.Errorf("selection lost on failed fetch: %v", got)
	}
}

func TestSetSelectedVesselWithoutValidation(t *testing.T) {
	lister := &fakeLister{vessels: []models.Vessel{vessel("A", "Alpha")}}
	persist := &fakePersist{}
	s := New(lister, persist, nil)
	s.FetchVessels(context.Background())

	// Selecting a vessel the collection has not caught up with is allowed.
	s.SetSelectedVessel(&models.SelectedVessel{ID: "Z", Name: "Zulu"})
	if got := s.SelectedVessel(); got == nil || got.ID != "Z" {
		t.Errorf("selection = %v, want Z", got)
	}

	saved, _ := persist.LoadSelectedVessel()
	if saved == nil || saved.ID != "Z" {
		t.Errorf("persisted selection = %v, want Z", saved)
	}
}

func TestLoadPersistedSelection(t *testing.T) {
	persist := &fakePersist{selected: &models.SelectedVessel{ID: "A", Name: "Alpha"}}
	s := New(&fakeLister{}, persist, nil)

	s.LoadPersistedSelection()

	if got := s.SelectedVessel(); got == nil || got.ID != "A" {
		t.Errorf("restored selection = %v, want A", got)
	}
}

func TestClearSelectedVessel(t *testing.T) {
	persist := &fakePersist{selected: &models.SelectedVessel{ID: "A"}}
	s := New(&fakeLister{}, persist, nil)
	s.LoadPersistedSelection()

	s.ClearSelectedVessel()

	if s.SelectedVessel() != nil {
		t.Error("selection not cleared")
	}
	if saved, _ := persist.LoadSelectedVessel(); saved != nil {
		t.Error("persisted selection not cleared")
	}
}
