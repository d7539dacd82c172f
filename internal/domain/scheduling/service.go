package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jssolutionshub/welltrack/internal/domain/identity"
	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/internal/platform/notification"
)

var (
	ErrNotFound       = errors.New("appointment not found")
	ErrStatusConflict = errors.New("appointment is in a terminal status")
	ErrNotAssigned    = errors.New("appointment is not assigned to you")
)

// userDirectory is the slice of the identity repository scheduling needs for
// party validation and notification addressing.
type userDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service struct {
	appointments Repository
	users        userDirectory
	notifier     *notification.Manager
}

func NewService(appointments Repository, users userDirectory, notifier *notification.Manager) *Service {
	return &Service{appointments: appointments, users: users, notifier: notifier}
}

// Create is the administrative path: an appointment is opened for exactly one
// party, either an officer awaiting assignment or a counselor publishing a
// slot. Supplying both or neither is rejected.
func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if (a.OfficerID == nil) == (a.CounselorID == nil) {
		return fmt.Errorf("exactly one of officer_id or counselor_id is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if a.DurationMinutes <= 0 {
		a.DurationMinutes = DefaultDurationMinutes
	}
	a.Status = StatusScheduled

	party, err := s.resolveParty(ctx, a)
	if err != nil {
		return err
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		return err
	}

	s.notifier.Notify(ctx, notification.TemplateAppointmentScheduled, s.emailData(a, party, nil), party.Email)
	return nil
}

// Book is the officer self-service path: the calling officer reserves a
// session with a chosen counselor. The counselor is emailed; nobody else is.
func (s *Service) Book(ctx context.Context, officerID, counselorID uuid.UUID, scheduledAt time.Time, durationMinutes int, notes *string) (*Appointment, error) {
	if scheduledAt.IsZero() {
		return nil, fmt.Errorf("scheduled_at is required")
	}
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}

	officer, err := s.users.GetByID(ctx, officerID)
	if err != nil {
		return nil, fmt.Errorf("officer: %w", err)
	}
	counselor, err := s.users.GetByID(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("counselor: %w", err)
	}
	if counselor.Role != auth.RoleCounselor {
		return nil, fmt.Errorf("user %s is not a counselor", counselorID)
	}

	a := &Appointment{
		OfficerID:       &officerID,
		CounselorID:     &counselorID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: durationMinutes,
		Status:          StatusScheduled,
		Notes:           notes,
		CreatedBy:       officerID,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notification.TemplateAppointmentBooked, s.emailData(a, counselor, officer), counselor.Email)
	return a, nil
}

// UpdateStatus moves an appointment out of the scheduled state. Terminal
// statuses never transition again; counselors may only act on their own
// sessions.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	if status != StatusCompleted && status != StatusCancelled {
		return nil, fmt.Errorf("invalid target status %q", status)
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorRole == auth.RoleCounselor && (a.CounselorID == nil || *a.CounselorID != actorID) {
		return nil, ErrNotAssigned
	}
	if a.Status != StatusScheduled {
		return nil, ErrStatusConflict
	}

	a.Status = status
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}

	if status == StatusCancelled {
		s.notifyCancellation(ctx, a)
	}
	return a, nil
}

// Reschedule changes the time, duration, or notes of a scheduled appointment.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, durationMinutes int, notes *string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, ErrStatusConflict
	}

	if !scheduledAt.IsZero() {
		a.ScheduledAt = scheduledAt
	}
	if durationMinutes > 0 {
		a.DurationMinutes = durationMinutes
	}
	if notes != nil {
		a.Notes = notes
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, fmt.Errorf("invalid status %q", f.Status)
	}
	return s.appointments.List(ctx, f, limit, offset)
}

func (s *Service) resolveParty(ctx context.Context, a *Appointment) (*identity.User, error) {
	id := a.OfficerID
	if id == nil {
		id = a.CounselorID
	}
	u, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("party: %w", err)
	}
	if a.CounselorID != nil && u.Role != auth.RoleCounselor {
		return nil, fmt.Errorf("user %s is not a counselor", u.ID)
	}
	return u, nil
}

// notifyCancellation emails whichever parties are on the appointment.
// Lookup failures only cost the email.
func (s *Service) notifyCancellation(ctx context.Context, a *Appointment) {
	for _, id := range []*uuid.UUID{a.OfficerID, a.CounselorID} {
		if id == nil {
			continue
		}
		u, err := s.users.GetByID(ctx, *id)
		if err != nil {
			continue
		}
		data := s.emailData(a, u, nil)
		data["recipient_name"] = u.Name
		s.notifier.Notify(ctx, notification.TemplateAppointmentCancelled, data, u.Email)
	}
}

func (s *Service) emailData(a *Appointment, primary, secondary *identity.User) map[string]string {
	data := map[string]string{
		"date":     a.ScheduledAt.Format("Monday, January 2, 2006"),
		"time":     a.ScheduledAt.Format("15:04"),
		"duration": strconv.Itoa(a.DurationMinutes),
	}
	name := func(u *identity.User) string {
		if u == nil {
			return ""
		}
		return u.Name
	}
	for _, u := range []*identity.User{primary, secondary} {
		if u == nil {
			continue
		}
		switch u.Role {
		case auth.RoleOfficer:
			data["officer_name"] = name(u)
		case auth.RoleCounselor:
			data["counselor_name"] = name(u)
		}
	}
	return data
}
