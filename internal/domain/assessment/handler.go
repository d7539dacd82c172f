package assessment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts assessment routes on the authenticated group.
// Template management is admin-only; submissions are officer-only. Every
// authenticated role may read active templates.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/assessments/templates", h.ListTemplates)
	api.GET("/assessments/templates/:id", h.GetTemplate)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/assessments/templates", h.CreateTemplate)
	adminGroup.PUT("/assessments/templates/:id", h.UpdateTemplate)
	adminGroup.DELETE("/assessments/templates/:id", h.DeleteTemplate)
	adminGroup.GET("/assessments/analytics", h.Analytics)
	adminGroup.DELETE("/assessments/:id", h.DeleteResponse)

	officerGroup := api.Group("", auth.RequireRole(auth.RoleOfficer))
	officerGroup.POST("/assessments", h.Submit)

	api.GET("/assessments", h.ListResponses)
	api.GET("/assessments/:id", h.GetResponse)
}

type questionRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type templateRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Active      *bool             `json:"active"`
	Questions   []questionRequest `json:"questions"`
}

func (req *templateRequest) toTemplate() *Template {
	t := &Template{Title: req.Title, Description: req.Description}
	for i, q := range req.Questions {
		t.Questions = append(t.Questions, Question{Text: q.Text, Category: q.Category, Position: i})
	}
	return t
}

func (h *Handler) CreateTemplate(c echo.Context) error {
	var req templateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t := req.toTemplate()
	if creator, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		t.CreatedBy = creator
	}

	if err := h.svc.CreateTemplate(c.Request().Context(), t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req templateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t := req.toTemplate()
	t.ID = id

	if err := h.svc.UpdateTemplate(c.Request().Context(), t, req.Active); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "template not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteTemplate(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "template not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "template not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTemplates(c echo.Context) error {
	pg := pagination.FromContext(c)

	// Non-admins only ever see templates open for submission.
	activeOnly := auth.RoleFromContext(c.Request().Context()) != auth.RoleAdmin
	if c.QueryParam("active") == "true" {
		activeOnly = true
	}

	items, total, err := h.svc.ListTemplates(c.Request().Context(), activeOnly, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type submitRequest struct {
	TemplateID uuid.UUID         `json:"template_id"`
	Answers    []SubmittedAnswer `json:"answers"`
	Notes      *string           `json:"notes"`
}

func (h *Handler) Submit(c echo.Context) error {
	officerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.svc.Submit(c.Request().Context(), officerID, req.TemplateID, req.Answers, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrTemplateNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "template not found")
		case errors.Is(err, ErrNoAnswers), errors.Is(err, ErrTemplateInactive):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListResponses returns the caller's own submissions for officers, and the
// full history for admins and counselors.
func (h *Handler) ListResponses(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if auth.RoleFromContext(ctx) == auth.RoleOfficer {
		officerID, err := uuid.Parse(auth.UserIDFromContext(ctx))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
		}
		items, total, err := h.svc.ListResponsesByOfficer(ctx, officerID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.ListResponses(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetResponse(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	resp, err := h.svc.GetResponse(ctx, id)
	if err != nil {
		if errors.Is(err, ErrResponseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "response not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Officers may only read their own submissions.
	if auth.RoleFromContext(ctx) == auth.RoleOfficer && resp.OfficerID.String() != auth.UserIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteResponse(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteResponse(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrResponseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "response not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Analytics(c echo.Context) error {
	a, err := h.svc.Analytics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}
