package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"healthwatch/internal/model"
)

// DefaultMaxResolved bounds how many resolved alerts are kept for audit.
const DefaultMaxResolved = 500

// AlertStore holds alerts and enforces their lifecycle:
//
//	open -> acknowledged -> resolved
//	open -> resolved
//	open | acknowledged -> dismissed
//
// Resolved and dismissed are terminal. Dismissed alerts leave the collection
// but their ids are remembered so later calls report them as terminal. At
// most maxResolved such ids are remembered; older ones report NotFound.
// Every alert handed out is a copy.
type AlertStore struct {
	mu          sync.RWMutex
	alerts      map[string]*model.Alert
	order       []string                    // ids in insertion order
	episodes    map[string]string           // episode key -> id of the unresolved system alert
	terminated  map[string]model.AlertState // ids no longer held
	tombstones  []string                    // terminated ids, oldest first
	maxResolved int
	now         func() time.Time
	newID       func() string
	logger      zerolog.Logger
}

// AlertStoreOption is a functional option for configuring an AlertStore.
type AlertStoreOption func(*AlertStore)

// WithAlertClock overrides the lifecycle timestamp source.
func WithAlertClock(now func() time.Time) AlertStoreOption {
	return func(s *AlertStore) {
		s.now = now
	}
}

// WithMaxResolved sets how many resolved alerts are retained. It also bounds
// how many removed ids are remembered as terminal.
func WithMaxResolved(n int) AlertStoreOption {
	return func(s *AlertStore) {
		if n > 0 {
			s.maxResolved = n
		}
	}
}

// WithIDGenerator overrides alert id generation.
func WithIDGenerator(gen func() string) AlertStoreOption {
	return func(s *AlertStore) {
		s.newID = gen
	}
}

// NewAlertStore creates an empty store.
func NewAlertStore(logger zerolog.Logger, opts ...AlertStoreOption) *AlertStore {
	s := &AlertStore{
		alerts:      make(map[string]*model.Alert),
		episodes:    make(map[string]string),
		terminated:  make(map[string]model.AlertState),
		maxResolved: DefaultMaxResolved,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      logger.With().Str("component", "alert-store").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records an operator-raised alert.
func (s *AlertStore) Create(alertType string, severity model.AlertSeverity, message string) (*model.Alert, error) {
	alertType = strings.TrimSpace(alertType)
	message = strings.TrimSpace(message)
	if alertType == "" {
		return nil, fmt.Errorf("%w: type is required", model.ErrInvalidAlert)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", model.ErrInvalidAlert)
	}
	if _, err := model.ParseAlertSeverity(string(severity)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := &model.Alert{
		ID:        s.newID(),
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		CreatedAt: s.now(),
		State:     model.AlertStateOpen,
		Origin:    model.AlertOriginOperator,
	}
	s.insertLocked(a)

	s.logger.Info().
		Str("alert_id", a.ID).
		Str("type", a.Type).
		Str("severity", string(a.Severity)).
		Msg("operator alert created")

	return a.Clone(), nil
}

// Raise records a system alert unless an unresolved alert of the same
// episode (type and source) is already held. It returns the stored alert
// and whether it was newly inserted.
func (s *AlertStore) Raise(candidate *model.Alert) (*model.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := candidate.EpisodeKey()
	if id, ok := s.episodes[key]; ok {
		if existing, ok := s.alerts[id]; ok && existing.IsUnresolved() {
			return existing.Clone(), false
		}
		delete(s.episodes, key)
	}

	a := candidate.Clone()
	a.ID = s.newID()
	a.State = model.AlertStateOpen
	a.Origin = model.AlertOriginSystem
	a.Acknowledgement = nil
	a.Resolution = nil
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.insertLocked(a)
	s.episodes[key] = a.ID

	s.logger.Info().
		Str("alert_id", a.ID).
		Str("type", a.Type).
		Str("severity", string(a.Severity)).
		Str("source", a.Source).
		Msg("alert raised")

	return a.Clone(), true
}

// RaiseAll raises each candidate and returns only the newly inserted alerts.
func (s *AlertStore) RaiseAll(candidates []*model.Alert) []*model.Alert {
	var raised []*model.Alert
	for _, c := range candidates {
		if a, ok := s.Raise(c); ok {
			raised = append(raised, a)
		}
	}
	return raised
}

// EndEpisode closes the breach episode of alertType and source so the next
// breach raises a fresh alert. The alert already raised keeps its state and
// stays with the operator. It reports whether an episode was open.
func (s *AlertStore) EndEpisode(alertType, source string) bool {
	key := (&model.Alert{Type: alertType, Source: source}).EpisodeKey()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.episodes[key]
	if !ok {
		return false
	}
	delete(s.episodes, key)

	s.logger.Info().
		Str("alert_id", id).
		Str("type", alertType).
		Str("source", source).
		Msg("breach episode ended")
	return true
}

// Get returns a copy of the alert with the given id.
func (s *AlertStore) Get(id string) (*model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrAlertNotFound, id)
	}
	return a.Clone(), nil
}

// List returns copies of the alerts matching filter, oldest first.
func (s *AlertStore) List(filter model.AlertFilter) []*model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Alert, 0, len(s.order))
	for _, id := range s.order {
		a := s.alerts[id]
		if filter.Match(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Counts returns aggregate counts over the held alerts.
func (s *AlertStore) Counts() model.AlertCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	held := make([]*model.Alert, 0, len(s.order))
	for _, id := range s.order {
		held = append(held, s.alerts[id])
	}
	return model.NewAlertCounts(held)
}

// Acknowledge records userID taking ownership of an open or acknowledged
// alert. Acknowledging again overwrites the previous acknowledgement.
func (s *AlertStore) Acknowledge(id, userID, comment string) (*model.Alert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", model.ErrInvalidAlert)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupActiveLocked(id)
	if err != nil {
		return nil, err
	}

	a.Acknowledgement = &model.Acknowledgement{
		UserID:    userID,
		Timestamp: s.now(),
		Comment:   comment,
	}
	a.State = model.AlertStateAcknowledged

	s.logger.Info().Str("alert_id", id).Str("user_id", userID).Msg("alert acknowledged")
	return a.Clone(), nil
}

// Resolve closes an open or acknowledged alert.
func (s *AlertStore) Resolve(id, userID, note string) (*model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupActiveLocked(id)
	if err != nil {
		return nil, err
	}

	resolvedAt := s.now()
	if a.Acknowledgement != nil && resolvedAt.Before(a.Acknowledgement.Timestamp) {
		resolvedAt = a.Acknowledgement.Timestamp
	}
	a.Resolution = &model.Resolution{
		ResolvedAt: resolvedAt,
		ResolvedBy: userID,
		Note:       note,
	}
	a.State = model.AlertStateResolved
	s.releaseEpisodeLocked(a)

	resolved := a.Clone()
	s.pruneResolvedLocked()

	s.logger.Info().Str("alert_id", id).Str("user_id", userID).Msg("alert resolved")
	return resolved, nil
}

// Dismiss removes an open or acknowledged alert from the collection.
func (s *AlertStore) Dismiss(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupActiveLocked(id)
	if err != nil {
		return err
	}

	s.releaseEpisodeLocked(a)
	s.removeLocked(id, model.AlertStateDismissed)

	s.logger.Info().Str("alert_id", id).Msg("alert dismissed")
	return nil
}

// lookupActiveLocked returns the live alert for a lifecycle transition.
func (s *AlertStore) lookupActiveLocked(id string) (*model.Alert, error) {
	if state, ok := s.terminated[id]; ok {
		return nil, fmt.Errorf("%w: %s is %s", model.ErrAlertTerminal, id, state)
	}
	a, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrAlertNotFound, id)
	}
	if a.State.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", model.ErrAlertTerminal, id, a.State)
	}
	return a, nil
}

func (s *AlertStore) insertLocked(a *model.Alert) {
	s.alerts[a.ID] = a
	s.order = append(s.order, a.ID)
}

func (s *AlertStore) removeLocked(id string, state model.AlertState) {
	delete(s.alerts, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.terminated[id] = state
	s.tombstones = append(s.tombstones, id)
	if drop := len(s.tombstones) - s.maxResolved; drop > 0 {
		for _, old := range s.tombstones[:drop] {
			delete(s.terminated, old)
		}
		s.tombstones = append(s.tombstones[:0], s.tombstones[drop:]...)
	}
}

func (s *AlertStore) releaseEpisodeLocked(a *model.Alert) {
	key := a.EpisodeKey()
	if s.episodes[key] == a.ID {
		delete(s.episodes, key)
	}
}

// pruneResolvedLocked drops the oldest resolved alerts beyond maxResolved.
func (s *AlertStore) pruneResolvedLocked() {
	resolved := 0
	for _, id := range s.order {
		if s.alerts[id].IsResolved() {
			resolved++
		}
	}

	for excess := resolved - s.maxResolved; excess > 0; excess-- {
		for _, id := range s.order {
			if s.alerts[id].IsResolved() {
				s.removeLocked(id, model.AlertStateResolved)
				break
			}
		}
	}
}
