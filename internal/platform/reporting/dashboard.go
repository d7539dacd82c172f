package reporting

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jssolutionshub/welltrack/internal/platform/auth"
)

// DashboardStats is the role-shaped landing-page summary. Only the fields
// relevant to the caller's role are populated.
type DashboardStats struct {
	Role string `json:"role"`

	// Admin.
	TotalUsers        map[string]int `json:"total_users,omitempty"`
	TotalAssessments  *int           `json:"total_assessments,omitempty"`
	StressLevels      map[string]int `json:"stress_levels,omitempty"`
	TotalAppointments *int           `json:"total_appointments,omitempty"`
	TotalResources    *int           `json:"total_resources,omitempty"`

	// Officer.
	MyAssessments    *int    `json:"my_assessments,omitempty"`
	LatestLevel      *string `json:"latest_stress_level,omitempty"`
	MyAppointments   *int    `json:"my_appointments,omitempty"`
	UpcomingSessions *int    `json:"upcoming_sessions,omitempty"`

	// Counselor.
	AssignedSessions  *int `json:"assigned_sessions,omitempty"`
	CompletedSessions *int `json:"completed_sessions,omitempty"`
}

// RegisterDashboardRoutes mounts the stats route for every authenticated
// role.
func (h *Handler) RegisterDashboardRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.DashboardStats)
}

// DashboardStats assembles the summary for the calling user.
func (h *Handler) DashboardStats(c echo.Context) error {
	ctx := c.Request().Context()
	role := auth.RoleFromContext(ctx)

	userID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	var stats *DashboardStats
	switch role {
	case auth.RoleAdmin:
		stats, err = h.adminStats(ctx)
	case auth.RoleOfficer:
		stats, err = h.officerStats(ctx, userID)
	case auth.RoleCounselor:
		stats, err = h.counselorStats(ctx, userID)
	default:
		return echo.NewHTTPError(http.StatusForbidden, "unknown role")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	stats.Role = role
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) adminStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		TotalUsers:   make(map[string]int),
		StressLevels: make(map[string]int),
	}

	rows, err := h.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		stats.TotalUsers[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var assessments, appointments, resources int
	if err := h.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessment_response`).Scan(&assessments); err != nil {
		return nil, err
	}
	if err := h.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&appointments); err != nil {
		return nil, err
	}
	if err := h.pool.QueryRow(ctx, `SELECT COUNT(*) FROM resource`).Scan(&resources); err != nil {
		return nil, err
	}
	stats.TotalAssessments = &assessments
	stats.TotalAppointments = &appointments
	stats.TotalResources = &resources

	levelRows, err := h.pool.Query(ctx,
		`SELECT stress_level, COUNT(*) FROM assessment_response GROUP BY stress_level`)
	if err != nil {
		return nil, err
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var level string
		var count int
		if err := levelRows.Scan(&level, &count); err != nil {
			return nil, err
		}
		stats.StressLevels[level] = count
	}
	return stats, levelRows.Err()
}

func (h *Handler) officerStats(ctx context.Context, officerID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var assessments int
	if err := h.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_response WHERE officer_id = $1`,
		officerID).Scan(&assessments); err != nil {
		return nil, err
	}
	stats.MyAssessments = &assessments

	var latest *string
	if err := h.pool.QueryRow(ctx, `
		SELECT stress_level FROM assessment_response
		WHERE officer_id = $1 ORDER BY submitted_at DESC LIMIT 1`,
		officerID).Scan(&latest); err == nil {
		stats.LatestLevel = latest
	}

	var appointments, upcoming int
	if err := h.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE officer_id = $1`,
		officerID).Scan(&appointments); err != nil {
		return nil, err
	}
	if err := h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE officer_id = $1 AND status = 'scheduled' AND scheduled_at > NOW()`,
		officerID).Scan(&upcoming); err != nil {
		return nil, err
	}
	stats.MyAppointments = &appointments
	stats.UpcomingSessions = &upcoming
	return stats, nil
}

func (h *Handler) counselorStats(ctx context.Context, counselorID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var assigned, completed int
	if err := h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE counselor_id = $1 AND status = 'scheduled'`,
		counselorID).Scan(&assigned); err != nil {
		return nil, err
	}
	if err := h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE counselor_id = $1 AND status = 'completed'`,
		counselorID).Scan(&completed); err != nil {
		return nil, err
	}
	stats.AssignedSessions = &assigned
	stats.CompletedSessions = &completed
	return stats, nil
}
