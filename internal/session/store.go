// Package session keeps one comparison workflow per chat.
package session

import (
	"context"
	"log/slog"
	"showdown/internal/showdown"
	"sync"
	"time"
)

// Session is the per-chat state. Draft is the text typed so far and not yet
// submitted.
type Session struct {
	Workflow *showdown.Workflow

	mu       sync.Mutex
	draft    string
	lastSeen time.Time
}

func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.draft
}

func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = text
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return now.Sub(s.lastSeen)
}

type Store struct {
	svc  showdown.Service
	opts []showdown.Option
	now  func() time.Time
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore(svc showdown.Service, log *slog.Logger, opts ...showdown.Option) *Store {
	return &Store{
		svc:      svc,
		opts:     opts,
		now:      time.Now,
		log:      log,
		sessions: make(map[int64]*Session),
	}
}

// Get returns the chat's session, creating it on first use. It waits for the
// session's catalog, so a caller racing the creating one does not see an
// empty picker. A catalog failure is recorded in the workflow's last error,
// so the session is still returned.
func (s *Store) Get(ctx context.Context, chatID int64) *Session {
	now := s.now()

	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = s.newSessionLocked(chatID)
	}
	s.mu.Unlock()

	sess.touch(now)

	if !ok {
		s.log.InfoContext(ctx, "Session is created",
			"chatID", chatID)
	}

	s.loadCatalog(ctx, chatID, sess, !ok)

	return sess
}

// Restart replaces the chat's session with a fresh one and loads its catalog
// again. The draft and any results of the old session are dropped; a request
// still running against the old workflow finishes there unseen.
func (s *Store) Restart(ctx context.Context, chatID int64) *Session {
	now := s.now()

	s.mu.Lock()
	_, replaced := s.sessions[chatID]
	sess := s.newSessionLocked(chatID)
	s.mu.Unlock()

	sess.touch(now)

	s.log.InfoContext(ctx, "Session is restarted",
		"chatID", chatID,
		"replaced", replaced)

	s.loadCatalog(ctx, chatID, sess, true)

	return sess
}

func (s *Store) newSessionLocked(chatID int64) *Session {
	sess := &Session{
		Workflow: showdown.New(s.svc, s.log.With("chatID", chatID), s.opts...),
	}
	s.sessions[chatID] = sess

	return sess
}

func (s *Store) loadCatalog(ctx context.Context, chatID int64, sess *Session, created bool) {
	err := sess.Workflow.LoadCatalog(ctx)
	if err == nil || !created {
		return
	}

	s.log.WarnContext(ctx, "Session started without models",
		"error", err,
		"chatID", chatID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Sweep drops sessions idle for longer than idle. Busy sessions are kept.
func (s *Store) Sweep(ctx context.Context, idle time.Duration) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for chatID, sess := range s.sessions {
		if sess.idleSince(now) <= idle || sess.Workflow.Busy() {
			continue
		}

		delete(s.sessions, chatID)
		removed++
	}

	if removed > 0 {
		s.log.InfoContext(ctx, "Idle sessions are swept",
			"removed", removed,
			"remaining", len(s.sessions),
			"idleTTL", idle.String())
	}

	return removed
}
