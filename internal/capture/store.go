// Package capture holds uploaded captures in memory, grouped by chat session.
package capture

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

const (
	sessionIDLength = 12
	fileIDLength    = 8

	DefaultTTL = 24 * time.Hour
)

// ChatMessage is one entry of a session's visible chat history.
type ChatMessage struct {
	Role      domain.Role `json:"role"`
	Content   string      `json:"content"`
	Charts    []any       `json:"charts,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type file struct {
	info  domain.FileInfo
	table *domain.Table
}

type session struct {
	id        string
	createdAt time.Time
	files     map[string]*file
	order     []string
	history   []ChatMessage
}

// SessionSummary is a read-only snapshot of a session.
type SessionSummary struct {
	SessionID string            `json:"session_id"`
	CreatedAt time.Time         `json:"created_at"`
	FileCount int               `json:"file_count"`
	Files     []domain.FileInfo `json:"files"`
}

// Store is an in-memory, concurrency-safe session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

var _ ports.CaptureStore = (*Store)(nil)

// NewID returns the first n hex characters of a random UUID.
func NewID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// Create starts an empty session and returns its id.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := NewID(sessionIDLength)
	s.sessions[id] = s.newSession(id)
	return id
}

// GetOrCreate returns the session with id, creating it if needed.
func (s *Store) GetOrCreate(id string) SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = s.newSession(id)
		s.sessions[id] = sess
	}
	return sess.summary()
}

func (s *Store) newSession(id string) *session {
	return &session{id: id, createdAt: s.now().UTC(), files: make(map[string]*file)}
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (SessionSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return SessionSummary{}, false
	}
	return sess.summary(), true
}

// AddFile registers a parsed capture, creating the session if needed.
func (s *Store) AddFile(sessionID string, table *domain.Table, info domain.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.newSession(sessionID)
		s.sessions[sessionID] = sess
	}
	if info.UploadedAt.IsZero() {
		info.UploadedAt = s.now().UTC()
	}
	if _, exists := sess.files[info.FileID]; !exists {
		sess.order = append(sess.order, info.FileID)
	}
	sess.files[info.FileID] = &file{info: info, table: table}
}

func (s *Store) lookup(sessionID, fileID string) (*file, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ports.ErrSessionNotFound)
	}
	f, ok := sess.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %q in session %q: %w", fileID, sessionID, ports.ErrFileNotFound)
	}
	return f, nil
}

func (s *Store) Table(ctx context.Context, sessionID, fileID string) (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.lookup(sessionID, fileID)
	if err != nil {
		return nil, err
	}
	return f.table, nil
}

func (s *Store) FileInfo(ctx context.Context, sessionID, fileID string) (*domain.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.lookup(sessionID, fileID)
	if err != nil {
		return nil, err
	}
	info := f.info
	return &info, nil
}

// DefaultFileID returns the most recently uploaded file of the session.
func (s *Store) DefaultFileID(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("session %q: %w", sessionID, ports.ErrSessionNotFound)
	}
	var latest *file
	for _, id := range sess.order {
		f := sess.files[id]
		if latest == nil || !f.info.UploadedAt.Before(latest.info.UploadedAt) {
			latest = f
		}
	}
	if latest == nil {
		return "", fmt.Errorf("session %q has no files: %w", sessionID, ports.ErrFileNotFound)
	}
	return latest.info.FileID, nil
}

// Files lists the session's files in upload order.
func (s *Store) Files(sessionID string) ([]domain.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ports.ErrSessionNotFound)
	}
	return sess.fileInfos(), nil
}

// List returns every session, oldest first.
func (s *Store) List() []SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// CleanupExpired removes sessions created more than maxAge ago.
func (s *Store) CleanupExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().UTC().Add(-maxAge)
	var n int
	for id, sess := range s.sessions {
		if sess.createdAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// AppendHistory adds messages to the session's chat history.
func (s *Store) AppendHistory(sessionID string, msgs ...ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %q: %w", sessionID, ports.ErrSessionNotFound)
	}
	sess.history = append(sess.history, msgs...)
	return nil
}

// History returns at most the last n messages; n <= 0 returns all of them.
func (s *Store) History(sessionID string, n int) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ports.ErrSessionNotFound)
	}
	h := sess.history
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	return append([]ChatMessage(nil), h...), nil
}

func (sess *session) fileInfos() []domain.FileInfo {
	infos := make([]domain.FileInfo, 0, len(sess.order))
	for _, id := range sess.order {
		infos = append(infos, sess.files[id].info)
	}
	return infos
}

func (sess *session) summary() SessionSummary {
	return SessionSummary{
		SessionID: sess.id,
		CreatedAt: sess.createdAt,
		FileCount: len(sess.files),
		Files:     sess.fileInfos(),
	}
}
