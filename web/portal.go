// ABOUTME: Public document upload portal
// ABOUTME: Token-gated page showing only the task's entity, service and checklist
package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/practice"
)

func (s *Server) handlePortal(c echo.Context) error {
	portal, err := s.practice.TaskByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return s.portalError(c, err)
	}
	return c.Render(http.StatusOK, "portal", s.page(c, "Upload documents", map[string]interface{}{
		"Portal": portal,
		"Token":  c.Param("token"),
	}))
}

func (s *Server) handlePortalUpload(c echo.Context) error {
	ctx := c.Request().Context()
	token := c.Param("token")

	portal, err := s.practice.TaskByToken(ctx, token)
	if err != nil {
		return s.portalError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no files received")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return c.Render(http.StatusBadRequest, "portal", s.page(c, "Upload documents", map[string]interface{}{
			"Portal": portal,
			"Token":  token,
			"Error":  "Choose at least one file to upload.",
		}))
	}

	var uploaded []string
	for _, fh := range files {
		if err := s.uploadOne(c, token, fh); err != nil {
			s.logger.Warn("portal upload failed", zap.String("task", portal.TaskID), zap.String("file", fh.Filename), zap.Error(err))
			return c.Render(http.StatusBadGateway, "portal", s.page(c, "Upload documents", map[string]interface{}{
				"Portal":   portal,
				"Token":    token,
				"Uploaded": uploaded,
				"Error":    "We could not store " + fh.Filename + ". Please try again later.",
			}))
		}
		uploaded = append(uploaded, fh.Filename)
	}

	return c.Render(http.StatusOK, "portal_done", s.page(c, "Thank you", map[string]interface{}{
		"Portal":   portal,
		"Uploaded": uploaded,
	}))
}

func (s *Server) uploadOne(c echo.Context, token string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return s.practice.Upload(c.Request().Context(), token, fh.Filename, mimeType, f)
}

// portalError hides whether a token ever existed.
func (s *Server) portalError(c echo.Context, err error) error {
	if errors.Is(err, practice.ErrInvalidToken) {
		return echo.NewHTTPError(http.StatusNotFound, "This upload link is invalid or has expired.")
	}
	return err
}
