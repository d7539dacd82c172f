package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jssolutionshub/welltrack/internal/domain/identity"
	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/internal/platform/notification"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if f.OfficerID != nil && (a.OfficerID == nil || *a.OfficerID != *f.OfficerID) {
			continue
		}
		if f.CounselorID != nil && (a.CounselorID == nil || *a.CounselorID != *f.CounselorID) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

type mockDirectory struct {
	users map[uuid.UUID]*identity.User
}

func (m *mockDirectory) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return u, nil
}

func (m *mockDirectory) add(name, email, role string) *identity.User {
	u := &identity.User{ID: uuid.New(), Name: name, Email: email, Role: role, Active: true}
	m.users[u.ID] = u
	return u
}

func newTestService() (*Service, *mockRepo, *mockDirectory, *notification.MockEmailSender) {
	repo := newMockRepo()
	dir := &mockDirectory{users: make(map[uuid.UUID]*identity.User)}
	sender := &notification.MockEmailSender{}
	mgr := notification.NewManager(sender, notification.NewTemplateEngine(), zerolog.Nop())
	return NewService(repo, dir, mgr), repo, dir, sender
}

func nextWeek() time.Time {
	return time.Now().Add(7 * 24 * time.Hour).Truncate(time.Minute)
}

func TestCreate_OfficerOnly(t *testing.T) {
	svc, repo, dir, sender := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)

	a := &Appointment{OfficerID: &officer.ID, ScheduledAt: nextWeek()}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if a.Status != StatusScheduled {
		t.Errorf("status = %q, want scheduled", a.Status)
	}
	if a.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("duration = %d, want %d", a.DurationMinutes, DefaultDurationMinutes)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("expected 1 stored appointment, got %d", len(repo.appointments))
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if calls[0].To != "vale@precinct.gov" {
		t.Errorf("email to %q", calls[0].To)
	}
}

func TestCreate_XORRule(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	both := &Appointment{OfficerID: &officer.ID, CounselorID: &counselor.ID, ScheduledAt: nextWeek()}
	if err := svc.Create(context.Background(), both); err == nil {
		t.Error("expected error when both parties are set")
	}

	neither := &Appointment{ScheduledAt: nextWeek()}
	if err := svc.Create(context.Background(), neither); err == nil {
		t.Error("expected error when no party is set")
	}
}

func TestCreate_CounselorSlotRequiresCounselorRole(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)

	a := &Appointment{CounselorID: &officer.ID, ScheduledAt: nextWeek()}
	if err := svc.Create(context.Background(), a); err == nil {
		t.Error("expected error when counselor_id names a non-counselor")
	}
}

func TestBook(t *testing.T) {
	svc, _, dir, sender := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	a, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 0, nil)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if a.OfficerID == nil || *a.OfficerID != officer.ID {
		t.Error("officer not recorded")
	}
	if a.CounselorID == nil || *a.CounselorID != counselor.ID {
		t.Error("counselor not recorded")
	}
	if a.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("duration = %d, want default", a.DurationMinutes)
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if calls[0].To != "hart@precinct.gov" {
		t.Errorf("booking email should go to the counselor, went to %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Body, "Officer Vale") {
		t.Error("booking email should name the booking officer")
	}
}

func TestBook_NotACounselor(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	other := dir.add("Officer Ruiz", "ruiz@precinct.gov", auth.RoleOfficer)

	if _, err := svc.Book(context.Background(), officer.ID, other.ID, nextWeek(), 30, nil); err == nil {
		t.Error("expected error when booking with a non-counselor")
	}
}

func TestBook_EmailFailureDoesNotBlock(t *testing.T) {
	svc, repo, dir, sender := newTestService()
	sender.ShouldFail = true
	sender.FailError = "relay down"
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	if _, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil); err != nil {
		t.Fatalf("booking must not fail on email delivery: %v", err)
	}
	if len(repo.appointments) != 1 {
		t.Error("appointment not persisted")
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	a, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := svc.UpdateStatus(context.Background(), a.ID, StatusCompleted, counselor.ID, auth.RoleCounselor)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}

	// Terminal states do not transition again.
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCancelled, counselor.ID, auth.RoleCounselor); !errors.Is(err, ErrStatusConflict) {
		t.Errorf("expected ErrStatusConflict, got %v", err)
	}
}

func TestUpdateStatus_InvalidTarget(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	a, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusScheduled, counselor.ID, auth.RoleCounselor); err == nil {
		t.Error("expected error moving back to scheduled")
	}
	if _, err := svc.UpdateStatus(context.Background(), a.ID, "done", counselor.ID, auth.RoleCounselor); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestUpdateStatus_CounselorNotAssigned(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)
	stranger := dir.add("Dr. Mercer", "mercer@precinct.gov", auth.RoleCounselor)

	a, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCompleted, stranger.ID, auth.RoleCounselor); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("expected ErrNotAssigned, got %v", err)
	}
}

func TestCancellation_EmailsBothParties(t *testing.T) {
	svc, _, dir, sender := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	a, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCancelled, counselor.ID, auth.RoleCounselor); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	// One booking email plus two cancellation emails.
	recipients := make(map[string]bool)
	for _, call := range sender.Calls() {
		recipients[call.To] = true
	}
	if !recipients["vale@precinct.gov"] || !recipients["hart@precinct.gov"] {
		t.Errorf("expected both parties emailed, got %v", recipients)
	}
}

func TestReschedule(t *testing.T) {
	svc, _, dir, _ := newTestService()
	officer := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)

	a, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	newTime := nextWeek().Add(48 * time.Hour)
	got, err := svc.Reschedule(context.Background(), a.ID, newTime, 90, nil)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !got.ScheduledAt.Equal(newTime) {
		t.Errorf("scheduled_at = %v, want %v", got.ScheduledAt, newTime)
	}
	if got.DurationMinutes != 90 {
		t.Errorf("duration = %d, want 90", got.DurationMinutes)
	}

	// A completed appointment cannot be rescheduled.
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCompleted, counselor.ID, auth.RoleCounselor); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), a.ID, newTime.Add(time.Hour), 0, nil); !errors.Is(err, ErrStatusConflict) {
		t.Errorf("expected ErrStatusConflict, got %v", err)
	}
}

func TestList_Filters(t *testing.T) {
	svc, _, dir, _ := newTestService()
	counselor := dir.add("Dr. Hart", "hart@precinct.gov", auth.RoleCounselor)
	officerA := dir.add("Officer Vale", "vale@precinct.gov", auth.RoleOfficer)
	officerB := dir.add("Officer Ruiz", "ruiz@precinct.gov", auth.RoleOfficer)

	for _, officer := range []*identity.User{officerA, officerA, officerB} {
		if _, err := svc.Book(context.Background(), officer.ID, counselor.ID, nextWeek(), 60, nil); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	_, total, err := svc.List(context.Background(), Filter{OfficerID: &officerA.ID}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("officer filter total = %d, want 2", total)
	}

	_, total, err = svc.List(context.Background(), Filter{CounselorID: &counselor.ID}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("counselor filter total = %d, want 3", total)
	}

	if _, _, err := svc.List(context.Background(), Filter{Status: "bogus"}, 20, 0); err == nil {
		t.Error("expected error for invalid status filter")
	}
}
