// ABOUTME: Google sign-in for staff pages
// ABOUTME: OAuth login with a state cookie, domain check, admin gate and logout
package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/harperreed/taxdesk/crm"
)

// Authenticator is the identity provider and per-agent mail factory.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Identity(ctx context.Context, token *oauth2.Token) (email, name string, err error)
	Mailer(ctx context.Context, token *oauth2.Token, email string) (crm.Mailer, error)
}

func (s *Server) handleLogin(c echo.Context) error {
	if _, ok := s.sessions.Get(c); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.Render(http.StatusOK, "login", s.page(c, "Sign in", nil))
}

func (s *Server) handleLoginStart(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, s.auth.AuthCodeURL(state))
}

func (s *Server) handleCallback(c echo.Context) error {
	cookie, err := c.Cookie(stateCookie)
	state := c.QueryParam("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sign-in state; please try again")
	}
	c.SetCookie(&http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1})

	if msg := c.QueryParam("error"); msg != "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "sign-in cancelled: "+msg)
	}

	ctx := c.Request().Context()
	token, err := s.auth.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "sign-in failed")
	}

	email, name, err := s.auth.Identity(ctx, token)
	if err != nil {
		s.logger.Warn("identity lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "could not read your Google account")
	}
	if !s.domainAllowed(email) {
		s.logger.Warn("sign-in from outside allowed domain", zap.String("email", email))
		return echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("%s is not allowed to sign in", email))
	}

	s.sessions.Create(c, &Session{
		Email:   email,
		Name:    name,
		IsAdmin: s.isAdmin(email),
		Token:   token,
	})
	s.logger.Info("agent signed in", zap.String("email", email))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c echo.Context) error {
	s.sessions.Destroy(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) domainAllowed(email string) bool {
	domain := strings.TrimPrefix(strings.TrimSpace(s.cfg.Auth.AllowedDomain), "@")
	if domain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(domain))
}

// isAdmin treats an empty admin list as "every agent is an admin".
func (s *Server) isAdmin(email string) bool {
	if len(s.cfg.Auth.Admins) == 0 {
		return true
	}
	return s.cfg.Auth.IsAdmin(email)
}

// requireAuth loads the session or redirects to the login page.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := s.sessions.Get(c)
		if !ok {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		c.Set(contextKey, &RequestContext{
			Session: sess,
			build: func() *crm.Desk {
				mailer, err := s.auth.Mailer(c.Request().Context(), sess.Token, sess.Email)
				if err != nil {
					s.logger.Warn("mail unavailable for agent", zap.String("email", sess.Email), zap.Error(err))
					return s.desk
				}
				return s.desk.WithMailer(mailer)
			},
		})
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc := requestContext(c)
		if rc == nil || !rc.Session.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admins only")
		}
		return next(c)
	}
}
