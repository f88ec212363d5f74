// ABOUTME: Server-side sessions and the per-request context
// ABOUTME: Sessions live in an expiring LRU keyed by a random cookie value
package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/harperreed/taxdesk/crm"
)

const (
	sessionCookie = "taxdesk_session"
	stateCookie   = "taxdesk_oauth_state"
	maxSessions   = 1024
	contextKey    = "taxdesk.request"
)

// Session is one signed-in agent. Identity fields are set once at login;
// the mutable fields are shared by concurrent requests on the same cookie
// and are only touched through the methods below.
type Session struct {
	ID      string
	Email   string
	Name    string
	IsAdmin bool
	Token   *oauth2.Token

	mu         sync.Mutex
	selected   string
	flash      string
	flashError bool
}

// SetFlash stores a one-shot message for the next page render.
func (s *Session) SetFlash(msg string, isError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = msg
	s.flashError = isError
}

// TakeFlash returns and clears the pending message.
func (s *Session) TakeFlash() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, isErr := s.flash, s.flashError
	s.flash, s.flashError = "", false
	return msg, isErr
}

// Select records the client open on the card view; "" clears it.
func (s *Session) Select(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = clientID
}

// SelectedClient returns the client open on the card view.
func (s *Session) SelectedClient() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SessionStore keeps sessions in memory; a restart signs everyone out.
type SessionStore struct {
	sessions *expirable.LRU[string, *Session]
	ttl      time.Duration
	secure   bool
}

func NewSessionStore(ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{
		sessions: expirable.NewLRU[string, *Session](maxSessions, nil, ttl),
		ttl:      ttl,
		secure:   secure,
	}
}

// Create registers sess under a fresh ID and sets the cookie.
func (s *SessionStore) Create(c echo.Context, sess *Session) {
	sess.ID = uuid.NewString()
	s.sessions.Add(sess.ID, sess)
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get returns the session named by the request cookie.
func (s *SessionStore) Get(c echo.Context) (*Session, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return s.sessions.Get(cookie.Value)
}

// Destroy removes the session and expires the cookie.
func (s *SessionStore) Destroy(c echo.Context) {
	if sess, ok := s.Get(c); ok {
		s.sessions.Remove(sess.ID)
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// RequestContext is what a signed-in handler works with: the session and a
// desk that sends mail as that agent.
type RequestContext struct {
	Session *Session
	desk    *crm.Desk
	build   func() *crm.Desk
}

// Desk returns the agent's desk, building its mailer on first use.
func (rc *RequestContext) Desk() *crm.Desk {
	if rc.desk == nil {
		rc.desk = rc.build()
	}
	return rc.desk
}

func requestContext(c echo.Context) *RequestContext {
	rc, _ := c.Get(contextKey).(*RequestContext)
	return rc
}
