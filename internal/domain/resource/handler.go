package resource

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/internal/platform/blobstore"
	"github.com/jssolutionshub/welltrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts resource routes. Reads are open to every
// authenticated role; mutations are admin-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/resources", h.List)
	api.GET("/resources/:id", h.Get)
	api.GET("/resources/files/:blobID", h.DownloadFile)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/resources", h.Create)
	adminGroup.PUT("/resources/:id", h.Update)
	adminGroup.DELETE("/resources/:id", h.Delete)
}

// resourceFromForm reads the multipart fields shared by create and update.
func resourceFromForm(c echo.Context) *Resource {
	r := &Resource{
		Title:    c.FormValue("title"),
		Category: c.FormValue("category"),
		Type:     c.FormValue("type"),
	}
	if d := c.FormValue("description"); d != "" {
		r.Description = &d
	}
	if tags := c.FormValue("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				r.Tags = append(r.Tags, t)
			}
		}
	}
	return r
}

// uploadFromForm extracts the optional "file" part.
func uploadFromForm(c echo.Context) (*Upload, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		// No file part; attachments are optional.
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &Upload{
		FileName:    fh.Filename,
		ContentType: partContentType(fh.Header.Get("Content-Type"), fh.Filename),
		Content:     f,
	}, func() { f.Close() }, nil
}

// partContentType resolves the type to validate against. Most clients send
// the part as application/octet-stream regardless of what the file is, so in
// that case the extension decides.
func partContentType(declared, filename string) string {
	if declared != "" && declared != echo.MIMEOctetStream {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return declared
}

func (h *Handler) Create(c echo.Context) error {
	r := resourceFromForm(c)
	if creator, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		r.CreatedBy = creator
	}

	file, closeFile, err := uploadFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer closeFile()

	if err := h.svc.Create(c.Request().Context(), r, file); err != nil {
		return blobAwareError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	r := resourceFromForm(c)
	r.ID = id

	file, closeFile, err := uploadFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer closeFile()

	if err := h.svc.Update(c.Request().Context(), r, file); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return blobAwareError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("category"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// DownloadFile streams an attachment inline with its stored content type.
func (h *Handler) DownloadFile(c echo.Context) error {
	rc, meta, err := h.svc.OpenFile(c.Request().Context(), c.Param("blobID"))
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+meta.FileName+`"`)
	ct := meta.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, ct, rc)
}

// blobAwareError maps storage validation failures onto client errors.
func blobAwareError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, blobstore.ErrInvalidContentType), errors.Is(err, blobstore.ErrMissingFileName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
