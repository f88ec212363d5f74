// ABOUTME: Web UI server with embedded templates
// ABOUTME: Staff desk, admin and practice pages plus the public upload portal
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/config"
	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

//go:embed templates/*
var templatesFS embed.FS

// maxUploadBytes caps one portal POST.
const maxUploadBytes = 50 << 20

type Server struct {
	echo          *echo.Echo
	cfg           *config.Config
	desk          *crm.Desk
	practice      *practice.Service
	generator     *practice.Generator
	auth          Authenticator
	sessions      *SessionStore
	portalLimiter *ipLimiter
	logger        *zap.Logger
	secureCookies bool
}

// Options are the collaborators the server needs. Desk sends no mail on its
// own; each agent's requests use a desk bound to their Gmail account.
type Options struct {
	Config    *config.Config
	Desk      *crm.Desk
	Practice  *practice.Service
	Generator *practice.Generator
	Auth      Authenticator
	Logger    *zap.Logger
}

func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Desk == nil || opts.Practice == nil || opts.Auth == nil {
		return nil, fmt.Errorf("config, desk, practice and auth are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	secure := strings.HasPrefix(opts.Config.Server.PublicURL, "https://")
	s := &Server{
		echo:          e,
		cfg:           opts.Config,
		desk:          opts.Desk,
		practice:      opts.Practice,
		generator:     opts.Generator,
		auth:          opts.Auth,
		sessions:      NewSessionStore(opts.Config.Auth.SessionTTL, secure),
		portalLimiter: newIPLimiter(opts.Config.Server.PortalRate, opts.Config.Server.PortalBurst),
		logger:        logger,
		secureCookies: secure,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.logRequests)

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	e := s.echo

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/login", s.handleLogin)
	e.GET("/auth/login", s.handleLoginStart)
	e.GET("/auth/callback", s.handleCallback)
	e.POST("/logout", s.handleLogout)

	portal := e.Group("/upload", s.rateLimit)
	portal.GET("/:token", s.handlePortal)
	portal.POST("/:token", s.handlePortalUpload, middleware.BodyLimit(fmt.Sprintf("%dM", maxUploadBytes>>20)))

	staff := e.Group("", s.requireAuth)
	staff.GET("/", s.handleLobby)
	staff.POST("/next", s.handleNext)
	staff.GET("/search", s.handleSearch)
	staff.GET("/clients/:id", s.handleCard)
	staff.POST("/clients/:id", s.handleSave)
	staff.GET("/clients/:id/history", s.handleHistory)
	staff.POST("/clients/:id/preview", s.handlePreview)

	staff.GET("/tasks", s.handleTasks)
	staff.GET("/tasks/:id", s.handleTask)
	staff.POST("/tasks/:id", s.handleTaskUpdate)
	staff.GET("/entities", s.handleEntities)
	staff.POST("/entities", s.handleCreateEntity)
	staff.POST("/services", s.handleCreateService)
	staff.POST("/assignments", s.handleAssign)

	admin := staff.Group("/admin", s.requireAdmin)
	admin.GET("", s.handleAdmin)
	admin.POST("/clients/:id/email", s.handleManagerEmail)
	admin.POST("/tasks/generate", s.handleGenerate)
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.logger.Info("starting web server", zap.String("addr", addr), zap.String("public_url", s.cfg.Server.PublicURL))
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		httpRequests.WithLabelValues(c.Request().Method, routeLabel(c), fmt.Sprint(status)).Inc()
		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("route", routeLabel(c)),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

// routeLabel keeps tokens and IDs out of metric labels.
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "something went wrong"
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case errors.Is(err, db.ErrRecordNotFound), errors.Is(err, practice.ErrInvalidToken):
		code = http.StatusNotFound
		msg = "not found"
	default:
		// Internal detail goes to the log only; visitors see the generic message.
		s.logger.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}

	data := s.page(c, "Error", map[string]interface{}{"Code": code, "Message": msg})
	if rerr := c.Render(code, "error", data); rerr != nil {
		_ = c.String(code, msg)
	}
}

// page assembles the common template data.
func (s *Server) page(c echo.Context, title string, data map[string]interface{}) map[string]interface{} {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Title"] = title
	if rc := requestContext(c); rc != nil {
		data["Session"] = rc.Session
		if msg, isErr := rc.Session.TakeFlash(); msg != "" {
			data["Flash"] = msg
			data["FlashError"] = isErr
		}
	}
	return data
}

type renderer struct {
	pages map[string]*template.Template
}

var pageNames = []string{
	"login", "lobby", "card", "admin", "tasks", "task", "entities", "portal", "portal_done", "error",
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(models.DateLayout)
		},
		"join": strings.Join,
		"lines": func(s string) []string {
			return strings.Split(strings.TrimRight(s, "\n"), "\n")
		},
		"eq_fold": strings.EqualFold,
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templatesFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
