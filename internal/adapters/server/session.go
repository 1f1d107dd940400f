package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore cookie-сессии в памяти процесса. Состояния на сессию
// ровно одно — флаг администратора; рестарт процесса разлогинивает
// всех, что для этого приложения приемлемо.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
}

type session struct {
	admin     bool
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
	}
}

func (s *SessionStore) IsAdmin(r *http.Request) bool {
	cookie, err := r.Cookie(CookieSession)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[cookie.Value]
	if !ok {
		return false
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, cookie.Value)
		return false
	}
	return sess.admin
}

// SetAdmin выставляет флаг администратора и выдаёт новую cookie.
// id сессии меняется при каждом логине.
func (s *SessionStore) SetAdmin(w http.ResponseWriter) {
	id := uuid.NewString()

	s.mu.Lock()
	s.prune()
	s.sessions[id] = &session{
		admin:     true,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieSession,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// prune вызывается под мьютексом.
func (s *SessionStore) prune() {
	now := time.Now()
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
