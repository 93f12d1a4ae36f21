// Package state owns the dashboard's visualization state: the upload phase,
// the active file and the loaded chart specifications.
package state

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/data-explorer/client/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrBusy is returned when an upload is already in progress.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrNotIdle is returned when charts are loaded and a reset is required first.
	ErrNotIdle = errors.New("charts are loaded; reset before starting a new upload")
)

// Store is the single source of truth for the dashboard. All transitions
// emit an Event to subscribers. Events are published while mu is held so
// every subscriber sees them in transition order.
type Store struct {
	mu       sync.Mutex
	phase    models.Phase
	file     *models.UploadedFile
	result   *models.VisualizationResult
	uploadID string
	source   string

	events *broker
}

// New returns a Store in the idle phase with no file and no charts.
func New() *Store {
	return &Store{
		phase:  models.PhaseIdle,
		events: newBroker(),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Phase:    s.phase,
		File:     s.file.Meta(),
		UploadID: s.uploadID,
	}
	if s.result != nil {
		r := *s.result
		r.Charts = make([]models.ChartSpec, len(s.result.Charts))
		copy(r.Charts, s.result.Charts)
		snap.Result = &r
	}
	return snap
}

// Subscribe registers an observer. Call Unsubscribe with the returned id
// when done.
func (s *Store) Subscribe() (int64, <-chan Event) {
	return s.events.subscribe()
}

// Unsubscribe removes an observer and closes its channel.
func (s *Store) Unsubscribe(id int64) {
	s.events.unsubscribe(id)
}

// Notify publishes the current state again without a transition. It is used
// when something outside the store changes how the state is presented.
func (s *Store) Notify() {
	s.mu.Lock()
	s.events.publish(Event{Snapshot: s.snapshotLocked()})
	s.mu.Unlock()
}

// Subscribers returns the number of registered observers.
func (s *Store) Subscribers() int {
	return s.events.count()
}

// Begin moves the store from idle to uploading and returns the id of the new
// upload. file is nil for queries that do not send a file; label names the
// data source shown on the dashboard.
func (s *Store) Begin(file *models.UploadedFile, label string) (string, error) {
	s.mu.Lock()
	switch s.phase {
	case models.PhaseUploading:
		s.mu.Unlock()
		return "", ErrBusy
	case models.PhaseLoaded:
		s.mu.Unlock()
		return "", ErrNotIdle
	}

	s.phase = models.PhaseUploading
	s.file = file
	s.source = label
	s.uploadID = uuid.New().String()
	id := s.uploadID
	s.events.publish(Event{Snapshot: s.snapshotLocked()})
	s.mu.Unlock()
	return id, nil
}

// Complete stores the charts of upload id and moves to loaded. Completions
// for an upload that is no longer active are discarded and false is returned.
func (s *Store) Complete(id string, charts []models.ChartSpec) bool {
	s.mu.Lock()
	if !s.activeLocked(id) {
		s.mu.Unlock()
		slog.Debug("discarding stale upload result", "upload_id", id)
		return false
	}

	if charts == nil {
		charts = []models.ChartSpec{}
	}
	s.result = &models.VisualizationResult{
		Charts:     charts,
		FileName:   s.source,
		Source:     s.source,
		ReceivedAt: time.Now(),
	}
	if s.file != nil {
		s.result.FileName = s.file.Name
	}
	s.phase = models.PhaseLoaded
	s.events.publish(Event{Snapshot: s.snapshotLocked()})
	s.mu.Unlock()
	return true
}

// Fail reports the failure of upload id and falls back to idle. Two events
// are emitted: failed with the reason, then idle. The pending file is kept.
// Failures for an upload that is no longer active are discarded.
func (s *Store) Fail(id string, reason string) bool {
	s.mu.Lock()
	if !s.activeLocked(id) {
		s.mu.Unlock()
		slog.Debug("discarding stale upload failure", "upload_id", id, "reason", reason)
		return false
	}

	s.phase = models.PhaseFailed
	failed := s.snapshotLocked()
	failed.Reason = reason

	s.phase = models.PhaseIdle
	s.uploadID = ""
	s.events.publish(Event{Snapshot: failed, Notice: reason})
	s.events.publish(Event{Snapshot: s.snapshotLocked()})
	s.mu.Unlock()
	return true
}

// Reset discards the file and all charts and returns to idle. Any upload
// still in flight becomes stale.
func (s *Store) Reset() models.Snapshot {
	s.mu.Lock()
	s.phase = models.PhaseIdle
	s.file = nil
	s.result = nil
	s.uploadID = ""
	s.source = ""
	snap := s.snapshotLocked()
	s.events.publish(Event{Snapshot: snap})
	s.mu.Unlock()
	return snap
}

// ClearFile drops the pending file while idle.
func (s *Store) ClearFile() error {
	s.mu.Lock()
	if s.phase != models.PhaseIdle {
		phase := s.phase
		s.mu.Unlock()
		if phase == models.PhaseUploading {
			return ErrBusy
		}
		return ErrNotIdle
	}
	s.file = nil
	s.events.publish(Event{Snapshot: s.snapshotLocked()})
	s.mu.Unlock()
	return nil
}

func (s *Store) activeLocked(id string) bool {
	return s.phase == models.PhaseUploading && id != "" && id == s.uploadID
}
