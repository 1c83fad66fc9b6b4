package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

const (
	sessionTTL             = 30 * time.Minute
	sessionCleanupInterval = 10 * time.Minute
	sessionAnalysisTimeout = 2 * time.Minute
	sessionPublishTimeout  = 2 * time.Second
	maxSessionAnalyses     = 4
)

func tooManyMedications() error {
	return apperrors.NewValidationError(fmt.Sprintf("a session holds at most %d medications", entities.MaxMedicationsPerCheck))
}

// InteractionChecker analyses a medication list.
type InteractionChecker interface {
	CheckInteractions(ctx context.Context, meds []entities.Medication) *entities.InteractionReport
}

// SessionSnapshot is a consistent copy of a session's state.
type SessionSnapshot struct {
	ID          string                      `json:"id"`
	Disease     string                      `json:"disease,omitempty"`
	Medications []entities.Medication       `json:"medications"`
	Report      *entities.InteractionReport `json:"report"`
	Analyzing   bool                        `json:"analyzing"`
	Revision    uint64                      `json:"revision"`
}

// MedicationSession holds an editable medication list and its interaction report.
// Every change with two or more medications starts a fresh analysis; results of
// analyses started before a later change are discarded. At most
// maxSessionAnalyses checks run at once, and one that is superseded while
// waiting for a slot is skipped.
type MedicationSession struct {
	id      string
	disease string
	checker InteractionChecker
	timeout time.Duration
	bus     providers.EventBus

	mu               sync.Mutex
	meds             []entities.Medication
	revision         uint64
	analyzedRevision uint64
	report           *entities.InteractionReport

	// publishMu is taken before mu is released so events leave in mutation order.
	publishMu sync.Mutex
	inflight  sync.WaitGroup
	slots     chan struct{}
}

// NewMedicationSession creates an empty session.
func NewMedicationSession(checker InteractionChecker, disease string) *MedicationSession {
	return &MedicationSession{
		id:      uuid.New().String(),
		disease: disease,
		checker: checker,
		timeout: sessionAnalysisTimeout,
		slots:   make(chan struct{}, maxSessionAnalyses),
	}
}

// ID returns the session identifier.
func (s *MedicationSession) ID() string {
	return s.id
}

// Add appends a medication. A full session rejects it.
func (s *MedicationSession) Add(med entities.Medication) (SessionSnapshot, error) {
	med.Name = strings.TrimSpace(med.Name)
	med.Dosage = strings.TrimSpace(med.Dosage)
	med.Time = strings.TrimSpace(med.Time)
	if med.Name == "" {
		return SessionSnapshot{}, apperrors.NewValidationError("medication name is required")
	}

	s.mu.Lock()
	if len(s.meds) >= entities.MaxMedicationsPerCheck {
		s.mu.Unlock()
		return SessionSnapshot{}, tooManyMedications()
	}
	s.meds = append(s.meds, med)
	s.changedLocked()
	return s.unlockAndPublish(entities.SessionEventMedicationsChanged), nil
}

// Remove deletes the medication at index.
func (s *MedicationSession) Remove(index int) (SessionSnapshot, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.meds) {
		s.mu.Unlock()
		return SessionSnapshot{}, apperrors.NewNotFoundError(fmt.Sprintf("no medication at position %d", index))
	}
	s.meds = append(s.meds[:index:index], s.meds[index+1:]...)
	s.changedLocked()
	return s.unlockAndPublish(entities.SessionEventMedicationsChanged), nil
}

// Replace swaps the whole list.
func (s *MedicationSession) Replace(meds []entities.Medication) (SessionSnapshot, error) {
	if len(meds) > entities.MaxMedicationsPerCheck {
		return SessionSnapshot{}, tooManyMedications()
	}

	s.mu.Lock()
	s.meds = append([]entities.Medication(nil), meds...)
	s.changedLocked()
	return s.unlockAndPublish(entities.SessionEventMedicationsChanged), nil
}

// Snapshot returns the current state.
func (s *MedicationSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Wait blocks until every analysis started so far has returned.
func (s *MedicationSession) Wait() {
	s.inflight.Wait()
}

func (s *MedicationSession) changedLocked() {
	s.revision++
	if len(s.meds) < entities.MinMedicationsForInteractionCheck {
		s.report = nil
		s.analyzedRevision = s.revision
		return
	}

	meds := append([]entities.Medication(nil), s.meds...)
	s.inflight.Add(1)
	go s.analyze(s.revision, meds)
}

func (s *MedicationSession) analyze(revision uint64, meds []entities.Medication) {
	defer s.inflight.Done()

	s.slots <- struct{}{}
	defer func() { <-s.slots }()

	s.mu.Lock()
	superseded := revision != s.revision
	s.mu.Unlock()
	if superseded {
		log.Debug().Str("session_id", s.id).Uint64("revision", revision).Msg("skipping superseded interaction check")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	report := s.checker.CheckInteractions(ctx, meds)

	s.mu.Lock()
	if revision != s.revision {
		log.Debug().
			Str("session_id", s.id).
			Uint64("result_revision", revision).
			Uint64("current_revision", s.revision).
			Msg("discarding stale interaction report")
		s.mu.Unlock()
		return
	}
	s.report = report
	s.analyzedRevision = revision
	s.unlockAndPublish(entities.SessionEventReportReady)
}

// unlockAndPublish snapshots the session, releases s.mu and publishes the
// snapshot. The caller must hold s.mu.
func (s *MedicationSession) unlockAndPublish(eventType entities.SessionEventType) SessionSnapshot {
	snapshot := s.snapshotLocked()
	if s.bus == nil {
		s.mu.Unlock()
		return snapshot
	}

	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sessionPublishTimeout)
	defer cancel()
	event := &entities.SessionEvent{
		ID:          uuid.New().String(),
		SessionID:   s.id,
		Type:        eventType,
		Revision:    snapshot.Revision,
		Medications: snapshot.Medications,
		Report:      snapshot.Report,
		Analyzing:   snapshot.Analyzing,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, providers.SessionChannel(s.id), event); err != nil {
		log.Warn().Err(err).Str("session_id", s.id).Str("event", string(eventType)).Msg("failed to publish session event")
	}
	return snapshot
}

func (s *MedicationSession) snapshotLocked() SessionSnapshot {
	meds := append([]entities.Medication{}, s.meds...)
	return SessionSnapshot{
		ID:          s.id,
		Disease:     s.disease,
		Medications: meds,
		Report:      s.report,
		Analyzing:   s.analyzedRevision != s.revision,
		Revision:    s.revision,
	}
}

// SessionStore keeps medication sessions in memory with a sliding expiry.
type SessionStore struct {
	sessions *gocache.Cache
}

// NewSessionStore creates a session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: gocache.New(sessionTTL, sessionCleanupInterval)}
}

// Put stores a session.
func (s *SessionStore) Put(session *MedicationSession) {
	s.sessions.Set(session.ID(), session, gocache.DefaultExpiration)
}

// Get returns a session and extends its expiry.
func (s *SessionStore) Get(id string) (*MedicationSession, bool) {
	value, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	session := value.(*MedicationSession)
	s.sessions.Set(id, session, gocache.DefaultExpiration)
	return session, true
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}
