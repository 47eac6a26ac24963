// Package memory хранит сессии и историю свипов в памяти процесса.
// Используется с симулятором, когда Postgres не нужен, и в тестах.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/iwtcode/ct400Adapter/internal/domain/entities"
	"github.com/iwtcode/ct400Adapter/internal/interfaces"
	"gorm.io/gorm"
)

type Repository struct {
	mu       sync.Mutex
	sessions map[string]entities.InstrumentSession
	scans    []entities.ScanRecord
	nextID   uint
}

func NewRepository() *Repository {
	return &Repository{sessions: make(map[string]entities.InstrumentSession)}
}

func (r *Repository) Sessions() interfaces.SessionRepository { return sessionRepo{r} }
func (r *Repository) Scans() interfaces.ScanRecordRepository { return scanRepo{r} }
func (r *Repository) Close() error                           { return nil }

type sessionRepo struct{ r *Repository }

func (s sessionRepo) Create(session *entities.InstrumentSession) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	s.r.sessions[session.SessionID] = *session
	return nil
}

func (s sessionRepo) UpdateMonitorState(sessionID, status string, interval int) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	session, ok := s.r.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	session.Status = status
	session.Interval = interval
	session.UpdatedAt = time.Now()
	s.r.sessions[sessionID] = session
	return nil
}

func (s sessionRepo) Delete(sessionID string) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.sessions[sessionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.r.sessions, sessionID)
	return nil
}

func (s sessionRepo) GetBySessionID(sessionID string) (*entities.InstrumentSession, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	session, ok := s.r.sessions[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &session, nil
}

func (s sessionRepo) GetAll() ([]entities.InstrumentSession, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	all := make([]entities.InstrumentSession, 0, len(s.r.sessions))
	for _, session := range s.r.sessions {
		all = append(all, session)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

type scanRepo struct{ r *Repository }

func (s scanRepo) Create(record *entities.ScanRecord) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.nextID++
	record.ID = s.r.nextID
	record.CreatedAt = time.Now()
	s.r.scans = append(s.r.scans, *record)
	return nil
}

func (s scanRepo) List(sessionID string, limit int) ([]entities.ScanRecord, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var out []entities.ScanRecord
	for i := len(s.r.scans) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if sessionID == "" || s.r.scans[i].SessionID == sessionID {
			out = append(out, s.r.scans[i])
		}
	}
	return out, nil
}
